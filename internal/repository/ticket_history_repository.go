package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// HistoryFilter scopes history listings through the owning ticket.
type HistoryFilter struct {
	ClientID *int64
	AgentID  *int64
	Limit    int
}

// TicketHistoryRepository reads status transition entries. Entries are written
// by TicketRepository.Update only.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
	List(ctx context.Context, filter HistoryFilter) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, changed_by_id, comment, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	return r.query(ctx, query, ticketID)
}

func (r *ticketHistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]domain.TicketHistory, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("t.agent_id=$%d", len(args)))
	}
	query := fmt.Sprintf(`
        SELECT h.id, h.ticket_id, h.old_status, h.new_status, h.changed_by_id, h.comment, h.created_at
        FROM ticket_history h JOIN tickets t ON t.id = h.ticket_id
        WHERE %s ORDER BY h.created_at DESC, h.id DESC`, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return r.query(ctx, query, args...)
}

func (r *ticketHistoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.TicketHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.OldStatus,
			&history.NewStatus,
			&history.ChangedByID,
			&history.Comment,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
