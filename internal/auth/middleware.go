package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"asset-inventory-api/internal/response"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ClaimsKey is the context key for JWT claims
const ClaimsKey contextKey = "claims"

// ClaimsFromContext extracts the JWT claims from the request context
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingBearer
	}
	return strings.TrimSpace(token), nil
}

// ErrorCode maps a verification failure to a stable machine readable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingBearer):
		return "MISSING_AUTH_HEADER"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrInvalidSignature):
		return "INVALID_SIGNATURE"
	default:
		return "MALFORMED_TOKEN"
	}
}

// RequireBearer rejects requests without a valid bearer token and stores the
// claims in the request context.
func RequireBearer(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err == nil {
				var claims *Claims
				claims, err = tm.Verify(token)
				if err == nil {
					ctx := context.WithValue(r.Context(), ClaimsKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			response.ErrorCode(w, http.StatusUnauthorized, err.Error(), ErrorCode(err))
		})
	}
}
