package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	admin := sessionFor(f.admin)

	hardware, err := f.categories.CreateCategory(ctx, admin, "  Hardware ")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", hardware.Name)

	_, err = f.categories.CreateCategory(ctx, admin, "hardware")
	requireCode(t, err, apperrors.CodeConflict)

	_, err = f.categories.CreateCategory(ctx, admin, "   ")
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.categories.CreateCategory(ctx, sessionFor(f.agentA), "Red")
	requireCode(t, err, apperrors.CodeForbidden)

	software, err := f.categories.CreateCategory(ctx, admin, "Software")
	require.NoError(t, err)

	renamed, err := f.categories.UpdateCategory(ctx, admin, software.ID, "Aplicaciones")
	require.NoError(t, err)
	assert.Equal(t, "Aplicaciones", renamed.Name)

	_, err = f.categories.UpdateCategory(ctx, admin, software.ID, "HARDWARE")
	requireCode(t, err, apperrors.CodeConflict)

	_, err = f.categories.UpdateCategory(ctx, admin, 999, "Otra")
	requireCode(t, err, apperrors.CodeNotFound)

	list, err := f.categories.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Aplicaciones", list[0].Name)

	got, err := f.categories.GetCategory(ctx, hardware.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", got.Name)

	_, err = f.categories.GetCategory(ctx, 999)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestDeleteReferencedCategoryIsRejected(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	admin := sessionFor(f.admin)

	used, err := f.categories.CreateCategory(ctx, admin, "Red")
	require.NoError(t, err)
	unused, err := f.categories.CreateCategory(ctx, admin, "Sistema")
	require.NoError(t, err)

	_, err = f.tickets.CreateTicket(ctx, sessionFor(f.client1), TicketCreateInput{
		Title: "Sin internet", Description: "no conecta", CategoryID: &used.ID,
	})
	require.NoError(t, err)

	err = f.categories.DeleteCategory(ctx, admin, used.ID)
	requireCode(t, err, apperrors.CodeCategoryInUse)

	require.NoError(t, f.categories.DeleteCategory(ctx, admin, unused.ID))
	requireCode(t, f.categories.DeleteCategory(ctx, admin, unused.ID), apperrors.CodeNotFound)
	requireCode(t, f.categories.DeleteCategory(ctx, sessionFor(f.client1), used.ID), apperrors.CodeForbidden)
}
