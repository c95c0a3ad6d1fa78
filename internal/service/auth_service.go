package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const minPasswordLength = 6

// AuthService coordinates registration, login and token lifecycle.
type AuthService struct {
	users        repository.UserRepository
	blocklist    repository.TokenBlocklist
	tokenMgr     *auth.TokenManager
	bcryptCost   int
	allowedRoles map[domain.Role]struct{}
	logger       *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	Blocklist    repository.TokenBlocklist
	TokenManager *auth.TokenManager
	Logger       *zap.Logger
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
	Role     string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	allowed := make(map[domain.Role]struct{}, len(cfg.SelfRegisterRoles))
	for _, raw := range cfg.SelfRegisterRoles {
		if role, ok := domain.ParseRole(raw); ok {
			allowed[role] = struct{}{}
		}
	}
	return &AuthService{
		users:        deps.UserRepo,
		blocklist:    deps.Blocklist,
		tokenMgr:     tokenMgr,
		bcryptCost:   cfg.BcryptCost,
		allowedRoles: allowed,
		logger:       logger,
	}
}

// Register creates a new account with the requested role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["nombre"] = "is required"
	}
	if strings.TrimSpace(input.Surname) == "" {
		details["apellido"] = "is required"
	}
	if dto.GetValidator().Var(email, "required,email") != nil {
		details["correo"] = "must be a valid email"
	}
	if len(input.Password) < minPasswordLength {
		details["clave"] = "must be at least 6 characters"
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		details["rol"] = "must be one of ADMIN, AGENTE, CLIENTE"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid registration", details)
	}
	if _, allowed := s.allowedRoles[role]; !allowed {
		return nil, apperrors.NewForbidden("role cannot be self-registered")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateEmail(email)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Surname:      strings.TrimSpace(input.Surname),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, apperrors.MapError(err)
	}
	if role != domain.RoleClient {
		s.logger.Warn("privileged self-registration",
			zap.Int64("user_id", user.ID),
			zap.String("role", string(role)))
	}
	return user, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.IssuedToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewInvalidCredentials()
	}
	issued, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, issued, nil
}

// Refresh issues a new token for the session and revokes the presented one.
func (s *AuthService) Refresh(ctx context.Context, session domain.Session) (*auth.IssuedToken, error) {
	issued, err := s.tokenMgr.GenerateToken(session.UserID, session.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.revoke(ctx, session); err != nil {
		return nil, err
	}
	return issued, nil
}

// Logout revokes the session token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	return s.revoke(ctx, session)
}

func (s *AuthService) revoke(ctx context.Context, session domain.Session) error {
	ttl := s.tokenMgr.RemainingLifetime(session)
	if ttl <= 0 {
		return nil
	}
	if err := s.blocklist.Revoke(ctx, session.TokenID, ttl); err != nil {
		return apperrors.NewNetworkFailure("token blocklist", err)
	}
	return nil
}

// BootstrapAdmin creates the initial administrator when the email is unused.
// It reports whether an account was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		Name:         "Administrador",
		Surname:      "Sistema",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
