package domain

import "time"

// TicketHistory is an immutable record of one status transition.
type TicketHistory struct {
	ID          int64
	TicketID    int64
	OldStatus   TicketStatus
	NewStatus   TicketStatus
	ChangedByID *int64
	Comment     string
	CreatedAt   time.Time

	ChangedBy *User
}
