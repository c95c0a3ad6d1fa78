package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// UserResponse is the public view of an account; credentials never leave the service.
type UserResponse struct {
	ID      int64       `json:"idUsuario"`
	Name    string      `json:"nombre"`
	Surname string      `json:"apellido"`
	Email   string      `json:"correo"`
	Role    domain.Role `json:"rol"`
}

// NewUserResponse maps a user.
func NewUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:      user.ID,
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
		Role:    user.Role,
	}
}

func userResponsePtr(user *domain.User) *UserResponse {
	if user == nil {
		return nil
	}
	resp := NewUserResponse(*user)
	return &resp
}

// NewUserList maps users.
func NewUserList(users []domain.User) []UserResponse {
	items := make([]UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, NewUserResponse(user))
	}
	return items
}
