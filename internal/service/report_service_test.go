package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }

func TestBuildReport(t *testing.T) {
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	hardware := domain.Category{ID: 1, Name: "Hardware"}
	red := domain.Category{ID: 2, Name: "Red"}
	agents := map[int64]domain.User{
		10: {ID: 10, Name: "Carlos", Surname: "Ruiz", Role: domain.RoleAgent},
		11: {ID: 11, Name: "Ana", Surname: "Mora", Role: domain.RoleAgent},
	}

	tickets := []domain.Ticket{
		{ID: 1, Status: domain.TicketStatusResolved, CategoryID: ptrInt64(1), AgentID: ptrInt64(10),
			CreatedAt: base, ResolvedAt: ptrTime(base.Add(10 * time.Hour))},
		{ID: 2, Status: domain.TicketStatusResolved, CategoryID: ptrInt64(1), AgentID: ptrInt64(10),
			CreatedAt: base, ResolvedAt: ptrTime(base.Add(20 * time.Hour))},
		// Resuelto without a resolution timestamp is left out of averages.
		{ID: 3, Status: domain.TicketStatusResolved, CategoryID: ptrInt64(2), AgentID: ptrInt64(11), CreatedAt: base},
		// A stale timestamp on a non-resolved ticket is ignored as well.
		{ID: 4, Status: domain.TicketStatusInProgress, CategoryID: ptrInt64(2), AgentID: ptrInt64(11),
			CreatedAt: base.AddDate(0, 1, 0), ResolvedAt: ptrTime(base.AddDate(0, 1, 1))},
		{ID: 5, Status: domain.TicketStatusPending, CreatedAt: base.AddDate(0, 1, 0)},
		{ID: 6, Status: domain.TicketStatusCancelled, CreatedAt: base.AddDate(0, 2, 0)},
		{ID: 7, Status: domain.TicketStatusResolved, CreatedAt: base.AddDate(0, 2, 0),
			ResolvedAt: ptrTime(base.AddDate(0, 2, 0).Add(3 * time.Hour))},
	}

	report := BuildReport(tickets, []domain.Category{red, hardware}, agents, RangeAll, base)

	assert.Equal(t, 7, report.Total)
	require.Len(t, report.ByStatus, len(domain.TicketStatuses))
	counts := map[domain.TicketStatus]int{}
	for _, sc := range report.ByStatus {
		counts[sc.Status] = sc.Count
	}
	assert.Equal(t, 4, counts[domain.TicketStatusResolved])
	assert.Equal(t, 0, counts[domain.TicketStatusAssigned])
	assert.Equal(t, 1, counts[domain.TicketStatusPending])

	require.Len(t, report.ByCategory, 3)
	assert.Equal(t, "Hardware", report.ByCategory[0].Name)
	assert.Equal(t, 2, report.ByCategory[0].Count)
	assert.Equal(t, "Red", report.ByCategory[1].Name)
	assert.Equal(t, UncategorizedLabel, report.ByCategory[2].Name)
	assert.Nil(t, report.ByCategory[2].CategoryID)
	assert.Equal(t, 3, report.ByCategory[2].Count)

	// Red has no ticket with both timestamps in Resuelto.
	require.Len(t, report.ResolutionByCategory, 2)
	assert.Equal(t, "Hardware", report.ResolutionByCategory[0].Name)
	assert.InDelta(t, 15.0, report.ResolutionByCategory[0].AverageHours, 0.001)
	assert.Equal(t, 2, report.ResolutionByCategory[0].Resolved)
	assert.Equal(t, UncategorizedLabel, report.ResolutionByCategory[1].Name)
	assert.InDelta(t, 3.0, report.ResolutionByCategory[1].AverageHours, 0.001)

	assert.InDelta(t, 11.0, report.AverageResolutionHours, 0.001)

	require.Len(t, report.Monthly, 3)
	assert.Equal(t, "Ene", report.Monthly[0].Label)
	assert.Equal(t, 3, report.Monthly[0].Created)
	assert.Equal(t, 3, report.Monthly[0].Resolved)
	assert.Equal(t, "Feb", report.Monthly[1].Label)
	assert.Equal(t, 2, report.Monthly[1].Pending)
	assert.Equal(t, "Mar", report.Monthly[2].Label)
	assert.Equal(t, 1, report.Monthly[2].Resolved)
	assert.Equal(t, 0, report.Monthly[2].Pending)

	require.Len(t, report.Agents, 2)
	assert.Equal(t, "Ana Mora", report.Agents[0].Name)
	assert.Equal(t, 2, report.Agents[0].Assigned)
	assert.Equal(t, 1, report.Agents[0].Resolved)
	assert.Zero(t, report.Agents[0].AverageHours)
	assert.Equal(t, "Carlos Ruiz", report.Agents[1].Name)
	assert.Equal(t, 2, report.Agents[1].Resolved)
	assert.InDelta(t, 15.0, report.Agents[1].AverageHours, 0.001)
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, nil, nil, RangeMonth, time.Now())
	assert.Zero(t, report.Total)
	assert.Len(t, report.ByStatus, len(domain.TicketStatuses))
	assert.Empty(t, report.ByCategory)
	assert.Empty(t, report.Monthly)
	assert.Zero(t, report.AverageResolutionHours)
}

func TestParseReportRange(t *testing.T) {
	for raw, want := range map[string]ReportRange{
		"":          RangeAll,
		"mes":       RangeMonth,
		"TRIMESTRE": RangeQuarter,
		" anio ":    RangeYear,
		"semana":    RangeWeek,
		"todo":      RangeAll,
	} {
		got, ok := ParseReportRange(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseReportRange("siglo")
	assert.False(t, ok)

	now := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, RangeAll.Start(now))
	assert.Equal(t, now.AddDate(0, -3, 0), *RangeQuarter.Start(now))
}

func TestSummaryIsAdminOnlyAndCached(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	admin := sessionFor(f.admin)

	_, err := f.reports.Summary(ctx, sessionFor(f.agentA), "")
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.reports.Summary(ctx, admin, "siglo")
	requireCode(t, err, apperrors.CodeValidation)

	f.createTicket(t, f.client1, "uno")
	first, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)

	cached, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Total)
	hit, err := f.kv.Get(ctx, "summary:todo", &ReportSummary{})
	require.NoError(t, err)
	assert.True(t, hit, "summary is cached after the first read")

	f.createTicket(t, f.client1, "dos")
	fresh, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Total)
}

func statusCount(report *ReportSummary, status domain.TicketStatus) int {
	for _, sc := range report.ByStatus {
		if sc.Status == status {
			return sc.Count
		}
	}
	return -1
}

func TestSummaryRefreshesAfterTicketChanges(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	admin := sessionFor(f.admin)

	ticket := f.createTicket(t, f.client1, "impresora")
	before, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	assert.Equal(t, 1, statusCount(before, domain.TicketStatusPending))
	assert.Empty(t, before.Agents)

	_, err = f.assignments.AssignAgent(ctx, admin, ticket.ID, f.agentA.ID)
	require.NoError(t, err)
	assigned, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	require.Len(t, assigned.Agents, 1)
	assert.Equal(t, 1, assigned.Agents[0].Assigned)

	_, err = f.tickets.SetStatus(ctx, sessionFor(f.agentA), ticket.ID, "Resuelto", "")
	require.NoError(t, err)
	after, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	assert.Equal(t, 0, statusCount(after, domain.TicketStatusPending))
	assert.Equal(t, 1, statusCount(after, domain.TicketStatusResolved))
	assert.Equal(t, 1, after.Agents[0].Resolved)
}

func TestSummaryRefreshesAfterCategoryRename(t *testing.T) {
	f := newFixture(t, config.TicketsConfig{})
	ctx := context.Background()
	admin := sessionFor(f.admin)

	category, err := f.categories.CreateCategory(ctx, admin, "Hardware")
	require.NoError(t, err)
	_, err = f.tickets.CreateTicket(ctx, sessionFor(f.client1), TicketCreateInput{
		Title: "monitor", Description: "parpadea", CategoryID: &category.ID,
	})
	require.NoError(t, err)

	before, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	require.Len(t, before.ByCategory, 1)
	assert.Equal(t, "Hardware", before.ByCategory[0].Name)

	_, err = f.categories.UpdateCategory(ctx, admin, category.ID, "Equipos")
	require.NoError(t, err)
	after, err := f.reports.Summary(ctx, admin, "todo")
	require.NoError(t, err)
	require.Len(t, after.ByCategory, 1)
	assert.Equal(t, "Equipos", after.ByCategory[0].Name)
}
