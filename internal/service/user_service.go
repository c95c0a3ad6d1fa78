package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService exposes the user roster.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ListByRole returns the users holding role. Clients may not browse the roster.
func (s *UserService) ListByRole(ctx context.Context, actor domain.Session, rawRole string) ([]domain.User, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleAgent {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"rol": rawRole})
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}
