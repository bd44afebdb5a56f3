package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiry is the lifetime of an issued token.
const DefaultExpiry = 5 * time.Hour

var (
	ErrMissingBearer    = errors.New("jwt must be provided")
	ErrMalformedToken   = errors.New("jwt malformed")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrTokenExpired     = errors.New("jwt expired")
)

// Claims represents the JWT claims structure
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies session tokens
type TokenManager struct {
	secret string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. A zero expiry selects DefaultExpiry.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	if expiry == 0 {
		expiry = DefaultExpiry
	}
	return &TokenManager{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// ValidateConfig checks the signing settings before the server starts.
func (m *TokenManager) ValidateConfig() error {
	if m.secret == "" {
		return errors.New("jwt secret is required")
	}
	if len(m.secret) < 16 {
		return errors.New("jwt secret must be at least 16 characters")
	}
	if m.expiry <= 0 {
		return errors.New("jwt expiry must be positive")
	}
	return nil
}

// Expiry returns the configured token lifetime.
func (m *TokenManager) Expiry() time.Duration { return m.expiry }

// Issue signs a token for username.
func (m *TokenManager) Issue(username string) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns its claims. Failures are one of
// ErrMissingBearer, ErrMalformedToken, ErrInvalidSignature or ErrTokenExpired.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMissingBearer
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err == nil {
		return claims, nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrInvalidSignature
	default:
		return nil, ErrMalformedToken
	}
}
