package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCommentThread(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	ticket := f.createTicket(t, f.client1, "Monitor")
	_, err := f.assignments.AssignAgent(ctx, sessionFor(f.admin), ticket.ID, f.agentA.ID)
	require.NoError(t, err)

	first, err := f.comments.AddComment(ctx, sessionFor(f.client1), ticket.ID, "  sigue sin imagen ")
	require.NoError(t, err)
	assert.Equal(t, "sigue sin imagen", first.Content)
	assert.Equal(t, f.client1.ID, first.AuthorID)
	require.NotNil(t, first.Author)

	_, err = f.comments.AddComment(ctx, sessionFor(f.agentA), ticket.ID, "cambiando cable")
	require.NoError(t, err)

	thread, err := f.comments.ListComments(ctx, sessionFor(f.admin), ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "sigue sin imagen", thread[0].Content)
	assert.Equal(t, "Carlos", thread[1].Author.Name)

	last := (*f.published)[len(*f.published)-1]
	assert.Equal(t, events.EventTicketCommentAdded, last.Type)
}

func TestCommentErrors(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	ticket := f.createTicket(t, f.client1, "Monitor")

	_, err := f.comments.AddComment(ctx, sessionFor(f.client1), ticket.ID, "   ")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.comments.AddComment(ctx, sessionFor(f.client1), 999, "hola")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = f.comments.AddComment(ctx, sessionFor(f.client2), ticket.ID, "hola")
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.comments.ListComments(ctx, sessionFor(f.agentB), ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	empty, err := f.comments.ListComments(ctx, sessionFor(f.client1), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
