package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestListByRole(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()

	agents, err := f.users.ListByRole(ctx, sessionFor(f.admin), "agente")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	for _, agent := range agents {
		assert.Equal(t, "AGENTE", string(agent.Role))
	}

	clients, err := f.users.ListByRole(ctx, sessionFor(f.agentA), "CLIENTE")
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	_, err = f.users.ListByRole(ctx, sessionFor(f.client1), "AGENTE")
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.users.ListByRole(ctx, sessionFor(f.admin), "SUPERVISOR")
	requireCode(t, err, apperrors.CodeValidation)
}
