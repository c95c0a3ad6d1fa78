package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewAlreadyAssigned(nil), CodeAlreadyAssigned, http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("assign: %w", NewNotFound("ticket", nil)), CodeNotFound, http.StatusNotFound},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, CodeTimeout, http.StatusGatewayTimeout},
		{"fiber forbidden", fiber.NewError(http.StatusForbidden, "nope"), CodeForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestDomainErrorMessageIncludesCause(t *testing.T) {
	err := NewNetworkFailure("redis", errors.New("dial tcp: refused"))
	assert.Equal(t, "redis unavailable: dial tcp: refused", err.Error())
	assert.True(t, errors.Is(err, errors.Unwrap(err)))
}

func TestMapErrorNil(t *testing.T) {
	err := MapError(nil)
	assert.NoError(t, err)
	assert.True(t, err == nil, "MapError(nil) must be an untyped nil error")

	mapped := MapError(pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, ToDomainError(mapped).Code)
}
