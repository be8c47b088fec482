package auth

import "github.com/angelmondragon/storefront-backend/internal/users"

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// LoginResponse carries the rotated session id and the signed-in user.
type LoginResponse struct {
	SessionID string         `json:"-"`
	User      *users.UserDTO `json:"user"`
}
