package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"correo" validate:"required,email"`
	Password string `json:"clave" validate:"required"`
}

// RegisterRequest payload for new accounts. Role names are matched case-insensitively.
type RegisterRequest struct {
	Name     string `json:"nombre" validate:"required,max=100"`
	Surname  string `json:"apellido" validate:"required,max=100"`
	Email    string `json:"correo" validate:"required,email,max=255"`
	Password string `json:"clave" validate:"required,min=6,max=72"`
	Role     string `json:"rol" validate:"required"`
}

// TokenPayload is the session descriptor returned on login and refresh.
type TokenPayload struct {
	Role        domain.Role `json:"rol"`
	ID          int64       `json:"id"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token TokenPayload `json:"token"`
}

// NewAuthResponse builds the response from an issued token.
func NewAuthResponse(issued *auth.IssuedToken) AuthResponse {
	return AuthResponse{Token: TokenPayload{
		Role:        issued.Session.Role,
		ID:          issued.Session.UserID,
		AccessToken: issued.Token,
		ExpiresAt:   issued.Session.ExpiresAt,
	}}
}
