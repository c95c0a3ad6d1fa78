package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()

	user, err := f.auth.Register(ctx, RegisterInput{
		Name: "Elena", Surname: "Torres", Email: " Elena@Example.com ", Password: "secreto1", Role: "cliente",
	})
	require.NoError(t, err)
	assert.Equal(t, "elena@example.com", user.Email)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.NotEqual(t, "secreto1", user.PasswordHash)

	_, err = f.auth.Register(ctx, RegisterInput{
		Name: "Elena", Surname: "Torres", Email: "ELENA@example.com", Password: "secreto1", Role: "CLIENTE",
	})
	requireCode(t, err, apperrors.CodeDuplicateEmail)

	loggedIn, issued, err := f.auth.Login(ctx, "elena@EXAMPLE.com", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, domain.RoleClient, issued.Session.Role)

	parsed, err := f.auth.TokenManager().ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed.UserID)
	assert.Equal(t, issued.Session.TokenID, parsed.TokenID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{
		Name: "Luis", Surname: "García", Email: "luis@example.com", Password: "secreto1", Role: "AGENTE",
	})
	require.NoError(t, err)

	_, _, wrongPassword := f.auth.Login(ctx, "luis@example.com", "otra-clave")
	_, _, unknownEmail := f.auth.Login(ctx, "nadie@example.com", "secreto1")
	requireCode(t, wrongPassword, apperrors.CodeInvalidCredentials)
	requireCode(t, unknownEmail, apperrors.CodeInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	valid := RegisterInput{Name: "A", Surname: "B", Email: "a@b.com", Password: "123456", Role: "CLIENTE"}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = " " }, "nombre"},
		{"missing surname", func(in *RegisterInput) { in.Surname = "" }, "apellido"},
		{"bad email", func(in *RegisterInput) { in.Email = "sin-arroba" }, "correo"},
		{"email without domain", func(in *RegisterInput) { in.Email = "juan@" }, "correo"},
		{"email with two ats", func(in *RegisterInput) { in.Email = "juan@@example.com" }, "correo"},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }, "clave"},
		{"unknown role", func(in *RegisterInput) { in.Role = "ROOT" }, "rol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			_, err := f.auth.Register(ctx, input)
			requireCode(t, err, apperrors.CodeValidation)
			assert.Contains(t, apperrors.ToDomainError(err).Details, tt.field)
		})
	}
}

func TestSelfRegisterRolesAreConfigurable(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:         "s",
		BcryptCost:        bcrypt.MinCost,
		SelfRegisterRoles: []string{"CLIENTE"},
	}, AuthDependencies{UserRepo: store.Users(), Blocklist: memory.NewKV()})

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Surname: "B", Email: "admin@x.com", Password: "123456", Role: "ADMIN",
	})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = svc.Register(context.Background(), RegisterInput{
		Name: "A", Surname: "B", Email: "client@x.com", Password: "123456", Role: "CLIENTE",
	})
	require.NoError(t, err)
}

func TestLogoutAndRefreshRevokeTokens(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{
		Name: "Rob", Surname: "S", Email: "rob@example.com", Password: "secreto1", Role: "CLIENTE",
	})
	require.NoError(t, err)
	_, issued, err := f.auth.Login(ctx, "rob@example.com", "secreto1")
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(ctx, issued.Session)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Session.TokenID, refreshed.Session.TokenID)

	revoked, err := f.kv.IsRevoked(ctx, issued.Session.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, f.auth.Logout(ctx, refreshed.Session))
	revoked, err = f.kv.IsRevoked(ctx, refreshed.Session.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	expired := refreshed.Session
	expired.TokenID = "expired"
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, f.auth.Logout(ctx, expired))
	revoked, err = f.kv.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBootstrapAdmin(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()

	created, err := f.auth.BootstrapAdmin(ctx, "root@example.com", "cambiar123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.auth.BootstrapAdmin(ctx, "ROOT@example.com", "cambiar123")
	require.NoError(t, err)
	assert.False(t, created)

	user, _, err := f.auth.Login(ctx, "root@example.com", "cambiar123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	created, err = f.auth.BootstrapAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
