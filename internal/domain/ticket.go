package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pendiente"
	TicketStatusAssigned   TicketStatus = "Asignado"
	TicketStatusInProgress TicketStatus = "En Proceso"
	TicketStatusResolved   TicketStatus = "Resuelto"
	TicketStatusCancelled  TicketStatus = "Cancelado"
)

// TicketStatuses lists statuses in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusCancelled,
}

// ParseTicketStatus matches a status label ignoring case and surrounding space.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	raw = strings.TrimSpace(raw)
	for _, status := range TicketStatuses {
		if strings.EqualFold(raw, string(status)) {
			return status, true
		}
	}
	return "", false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Baja"
	TicketPriorityMedium TicketPriority = "Media"
	TicketPriorityHigh   TicketPriority = "Alta"
	TicketPriorityUrgent TicketPriority = "Urgente"
)

// TicketPriorities lists priorities from lowest to highest.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// ParseTicketPriority matches a priority label ignoring case.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	raw = strings.TrimSpace(raw)
	for _, priority := range TicketPriorities {
		if strings.EqualFold(raw, string(priority)) {
			return priority, true
		}
	}
	return "", false
}

// Ticket is the aggregate for support requests.
//
// Status is Resuelto exactly when ResolvedAt is set. ClientID never changes
// and AgentID is written at most once.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CategoryID  *int64
	ClientID    int64
	AgentID     *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time

	// Populated by read paths for presentation.
	Client   *User
	Agent    *User
	Category *Category
}

// VisibleTo reports whether the session may read the ticket.
func (t *Ticket) VisibleTo(session Session) bool {
	switch session.Role {
	case RoleAdmin:
		return true
	case RoleAgent:
		return t.AgentID != nil && *t.AgentID == session.UserID
	case RoleClient:
		return t.ClientID == session.UserID
	default:
		return false
	}
}

// ApplyStatus moves the ticket to next and keeps ResolvedAt consistent with it.
func (t *Ticket) ApplyStatus(next TicketStatus, at time.Time) {
	t.Status = next
	if next == TicketStatusResolved {
		resolved := at
		t.ResolvedAt = &resolved
	} else {
		t.ResolvedAt = nil
	}
	t.UpdatedAt = at
}

// ResolutionDuration returns how long the ticket took to resolve.
func (t *Ticket) ResolutionDuration() (time.Duration, bool) {
	if t.Status != TicketStatusResolved || t.ResolvedAt == nil || t.CreatedAt.IsZero() {
		return 0, false
	}
	return t.ResolvedAt.Sub(t.CreatedAt), true
}
