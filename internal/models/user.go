package models

// User is a staff account.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"` // bcrypt digest, never exposed
}

// RegisterRequest represents the request body for POST /register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=5,max=20"`
	Password string `json:"password" validate:"required,min=8,max=30"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the response body for a login attempt
type LoginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// CheckUsernameRequest represents the request body for POST /check-username
type CheckUsernameRequest struct {
	Username string `json:"username"`
}

type CheckUsernameResponse struct {
	UsernameExists bool   `json:"usernameExists"`
	UserID         *int64 `json:"userId,omitempty"`
}

// ResetPasswordRequest represents the request body for PUT /users/{id}/reset-password
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"min=8,max=30"`
}
