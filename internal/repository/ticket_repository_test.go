package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTicketFilterMatches(t *testing.T) {
	agent := int64(9)
	category := int64(2)
	created := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ClientID:   1,
		AgentID:    &agent,
		CategoryID: &category,
		Status:     domain.TicketStatusInProgress,
		Priority:   domain.TicketPriorityHigh,
		CreatedAt:  created,
	}

	otherClient := int64(2)
	otherCategory := int64(3)
	before := created.Add(-time.Hour)
	after := created.Add(time.Hour)

	tests := []struct {
		name   string
		filter TicketFilter
		want   bool
	}{
		{"empty filter passes", TicketFilter{}, true},
		{"matching agent", TicketFilter{AgentID: &agent}, true},
		{"other client", TicketFilter{ClientID: &otherClient}, false},
		{"category match", TicketFilter{CategoryID: &category}, true},
		{"category mismatch", TicketFilter{CategoryID: &otherCategory}, false},
		{"status in set", TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusPending, domain.TicketStatusInProgress}}, true},
		{"status not in set", TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusResolved}}, false},
		{"priority and status intersect", TicketFilter{
			Statuses:   []domain.TicketStatus{domain.TicketStatusInProgress},
			Priorities: []domain.TicketPriority{domain.TicketPriorityLow},
		}, false},
		{"created after lower bound", TicketFilter{CreatedFrom: &before}, true},
		{"created before lower bound", TicketFilter{CreatedFrom: &after}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(ticket))
		})
	}

	unassigned := &domain.Ticket{ClientID: 1}
	assert.False(t, TicketFilter{AgentID: &agent}.Matches(unassigned))
	assert.False(t, TicketFilter{CategoryID: &category}.Matches(unassigned))
}
