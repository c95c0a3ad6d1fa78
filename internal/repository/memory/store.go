// Package memory provides process-local implementations of the repository
// interfaces. It backs the service when no Postgres DSN is configured and
// serves as the store for tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds every table behind a single lock.
type Store struct {
	mu sync.Mutex

	now func() time.Time

	users      map[int64]domain.User
	categories map[int64]domain.Category
	tickets    map[int64]domain.Ticket
	comments   []domain.Comment
	history    []domain.TicketHistory

	nextUser     int64
	nextCategory int64
	nextTicket   int64
	nextComment  int64
	nextHistory  int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		users:      make(map[int64]domain.User),
		categories: make(map[int64]domain.Category),
		tickets:    make(map[int64]domain.Ticket),
	}
}

// SetClock overrides the timestamp source used for generated columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Categories returns the category repository view of the store.
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// Tickets returns the ticket repository view of the store.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Comments returns the comment repository view of the store.
func (s *Store) Comments() repository.CommentRepository { return commentRepo{s} }

// History returns the history repository view of the store.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) GetMany(_ context.Context, ids []int64) (map[int64]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make(map[int64]domain.User, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

func (r userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.User
	for _, user := range r.s.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		if result[i].Surname != result[j].Surname {
			return result[i].Surname < result[j].Surname
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.categoryNameTaken(category.Name, 0) {
		return repository.ErrDuplicate
	}
	r.s.nextCategory++
	category.ID = r.s.nextCategory
	category.CreatedAt = r.s.now()
	category.UpdatedAt = category.CreatedAt
	r.s.categories[category.ID] = *category
	return nil
}

func (r categoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.categories[category.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.s.categoryNameTaken(category.Name, category.ID) {
		return repository.ErrDuplicate
	}
	existing.Name = category.Name
	existing.UpdatedAt = r.s.now()
	r.s.categories[category.ID] = existing
	*category = existing
	return nil
}

func (r categoryRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, ticket := range r.s.tickets {
		if ticket.CategoryID != nil && *ticket.CategoryID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	category, ok := r.s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.Category, 0, len(r.s.categories))
	for _, category := range r.s.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) categoryNameTaken(name string, exceptID int64) bool {
	for id, category := range s.categories {
		if id != exceptID && strings.EqualFold(category.Name, name) {
			return true
		}
	}
	return false
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[ticket.ClientID]; !ok {
		return repository.ErrInUse
	}
	if ticket.CategoryID != nil {
		if _, ok := r.s.categories[*ticket.CategoryID]; !ok {
			return repository.ErrInUse
		}
	}
	r.s.nextTicket++
	ticket.ID = r.s.nextTicket
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.s.now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := cloneTicket(ticket)
	return &clone, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if filter.Matches(&ticket) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > len(result) {
			start = len(result)
		}
		end := start + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}
	return result, nil
}

func (r ticketRepo) CountByCategory(_ context.Context, categoryID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, ticket := range r.s.tickets {
		if ticket.CategoryID != nil && *ticket.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// Update holds the store lock across the mutation, mirroring the row lock of
// the Postgres implementation.
func (r ticketRepo) Update(_ context.Context, id int64, mutate repository.TicketMutation) (*domain.Ticket, []domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, nil, pgx.ErrNoRows
	}
	working := cloneTicket(stored)
	entries, err := mutate(&working)
	if err != nil {
		return nil, nil, err
	}
	working.UpdatedAt = r.s.now()
	r.s.tickets[id] = cloneTicket(working)

	for i := range entries {
		r.s.nextHistory++
		entries[i].ID = r.s.nextHistory
		entries[i].TicketID = id
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = working.UpdatedAt
		}
		r.s.history = append(r.s.history, entries[i])
	}
	return &working, entries, nil
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrInUse
	}
	r.s.nextComment++
	comment.ID = r.s.nextComment
	comment.CreatedAt = r.s.now()
	stored := *comment
	stored.Author = nil
	r.s.comments = append(r.s.comments, stored)
	return nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.s.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.s.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r historyRepo) List(_ context.Context, filter repository.HistoryFilter) ([]domain.TicketHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scope := repository.TicketFilter{ClientID: filter.ClientID, AgentID: filter.AgentID}
	var result []domain.TicketHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		entry := r.s.history[i]
		ticket, ok := r.s.tickets[entry.TicketID]
		if !ok || !scope.Matches(&ticket) {
			continue
		}
		result = append(result, entry)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func cloneTicket(ticket domain.Ticket) domain.Ticket {
	clone := ticket
	clone.CategoryID = cloneInt64(ticket.CategoryID)
	clone.AgentID = cloneInt64(ticket.AgentID)
	if ticket.ResolvedAt != nil {
		resolved := *ticket.ResolvedAt
		clone.ResolvedAt = &resolved
	}
	clone.Client, clone.Agent, clone.Category = nil, nil, nil
	return clone
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
