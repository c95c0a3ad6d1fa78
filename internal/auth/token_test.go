package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30*time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return now }

	issued, err := tm.GenerateToken(42, domain.RoleAgent)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Session.TokenID)
	assert.Equal(t, now.Add(30*time.Minute), issued.Session.ExpiresAt)

	session, err := tm.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Session, session)
	assert.Equal(t, 10*time.Minute, tm.RemainingLifetime(domain.Session{ExpiresAt: now.Add(10 * time.Minute)}))
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued, err := tm.GenerateToken(1, domain.RoleClient)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", time.Minute)
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := later.ParseToken(issued.Token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Minute).ParseToken(issued.Token)
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(issued.Token, ".")
		require.Len(t, parts, 3)
		_, err := tm.ParseToken(parts[0] + "." + parts[1] + ".AAAA")
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			Role: domain.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "x",
				Subject:   "1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ParseToken(raw)
		assert.Error(t, err)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secreto1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "secreto1"))
	assert.Error(t, ComparePassword(hash, "otro"))

	_, err = HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
