package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"asset-inventory-api/internal/auth"
	"asset-inventory-api/internal/inventory"
	"asset-inventory-api/internal/models"
	"asset-inventory-api/internal/response"
	"asset-inventory-api/internal/validate"
)

var registerMessages = map[string]string{
	"username": "Username must be between 5 and 20 characters.",
	"password": "Password must be between 8 and 30 characters.",
}

var resetMessages = map[string]string{
	"newPassword": "Password must be between 8 and 30 characters long",
}

// decodeJSON decodes the body into v, writing 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		response.Error(w, http.StatusBadRequest, validate.DecodeError(err).Error())
		return false
	}
	return true
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req, registerMessages); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	users := s.Catalog.Users
	_, err := users.FindByUsername(ctx, req.Username)
	switch {
	case err == nil:
		response.Error(w, http.StatusOK, inventory.ErrUsernameTaken.Error())
		return
	case !errors.Is(err, inventory.ErrUserNotFound):
		s.storageError(w, r, err)
		return
	}

	digest, err := s.Hasher.Hash(req.Password)
	if err != nil {
		s.Logger.ErrorContext(ctx, "hash password", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Error hashing password")
		return
	}

	// the UNIQUE constraint catches registrations racing past the check above
	if _, err := users.Create(ctx, req.Username, digest); err != nil {
		if errors.Is(err, inventory.ErrUsernameTaken) {
			response.Error(w, http.StatusOK, err.Error())
			return
		}
		s.storageError(w, r, err)
		return
	}
	response.OK(w)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.Catalog.Users.FindByUsername(r.Context(), req.Username)
	if errors.Is(err, inventory.ErrUserNotFound) {
		s.Metrics.ObserveLogin("unknown_user")
		response.Error(w, http.StatusOK, err.Error())
		return
	}
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	ok, err := s.Hasher.Verify(req.Password, user.Password)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "verify password", slog.Int64("user_id", user.ID), slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Error verifying password")
		return
	}
	if !ok {
		s.Metrics.ObserveLogin("failed")
		response.JSON(w, http.StatusOK, models.LoginResponse{Status: response.StatusError, Message: "Login failed"})
		return
	}

	token, err := s.Tokens.Issue(user.Username)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "issue token", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Error issuing token")
		return
	}
	s.Metrics.ObserveLogin("success")
	response.JSON(w, http.StatusOK, models.LoginResponse{
		Status:  response.StatusOK,
		Message: "Login success",
		Token:   token,
	})
}

type authenResponse struct {
	Status  string       `json:"status"`
	Decoded *auth.Claims `json:"decoded"`
}

func (s *Server) authen(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		response.Error(w, http.StatusOK, err.Error())
		return
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		response.Error(w, http.StatusOK, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, authenResponse{Status: response.StatusOK, Decoded: claims})
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req models.CheckUsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.Catalog.Users.FindByUsername(r.Context(), req.Username)
	switch {
	case errors.Is(err, inventory.ErrUserNotFound):
		response.JSON(w, http.StatusOK, models.CheckUsernameResponse{UsernameExists: false})
	case err != nil:
		s.storageError(w, r, err)
	default:
		response.JSON(w, http.StatusOK, models.CheckUsernameResponse{UsernameExists: true, UserID: &user.ID})
	}
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req, resetMessages); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	digest, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "hash password", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Error hashing password")
		return
	}
	if err := s.Catalog.Users.UpdatePassword(r.Context(), id, digest); err != nil {
		s.Logger.ErrorContext(r.Context(), "update password", slog.Int64("user_id", id), slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Error updating password in the database")
		return
	}
	response.OK(w)
}
