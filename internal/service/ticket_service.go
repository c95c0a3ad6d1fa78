package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	strict     bool
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	HistoryRepo  repository.TicketHistoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    string
	CategoryID  *int64
	ClientID    *int64
}

// TicketListFilter describes the optional listing filters. Empty fields match
// every ticket.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *int64
}

// TicketPatch is a partial update applied atomically.
type TicketPatch struct {
	Status  *string
	AgentID *int64
	Comment string
}

// NewTicketService constructs the service.
func NewTicketService(cfg config.TicketsConfig, deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		strict:     cfg.StrictTransitions,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for transitions.
func (s *TicketService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateTicket opens a ticket. Status always starts at Pendiente with no agent.
func (s *TicketService) CreateTicket(ctx context.Context, session domain.Session, input TicketCreateInput) (*domain.Ticket, error) {
	clientID, err := s.resolveOwner(ctx, session, input.ClientID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	details := map[string]any{}
	if title == "" {
		details["titulo"] = "is required"
	}
	if description == "" {
		details["descripcion"] = "is required"
	}
	priority := domain.TicketPriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			details["prioridad"] = "must be one of Baja, Media, Alta, Urgente"
		}
		priority = parsed
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("category does not exist", map[string]any{"id_categoria": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusPending,
		Priority:    priority,
		CategoryID:  input.CategoryID,
		ClientID:    clientID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return nil, apperrors.NewValidationError("ticket references a missing record", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFromSession(session),
		Payload: events.TicketCreatedPayload{
			ClientID:   ticket.ClientID,
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	return s.hydrateOne(ctx, ticket)
}

func (s *TicketService) resolveOwner(ctx context.Context, session domain.Session, requested *int64) (int64, error) {
	switch session.Role {
	case domain.RoleClient:
		if requested != nil && *requested != session.UserID {
			return 0, apperrors.NewForbidden("clients can only open tickets for themselves")
		}
		return session.UserID, nil
	case domain.RoleAdmin:
		if requested == nil {
			return 0, apperrors.NewValidationError("invalid ticket", map[string]any{"idUsuarioCliente": "is required"})
		}
		owner, err := s.users.GetByID(ctx, *requested)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, apperrors.NewValidationError("client does not exist", map[string]any{"idUsuarioCliente": *requested})
			}
			return 0, apperrors.MapError(err)
		}
		if owner.Role != domain.RoleClient {
			return 0, apperrors.NewValidationError("ticket owner must be a client", map[string]any{"idUsuarioCliente": *requested})
		}
		return owner.ID, nil
	default:
		return 0, apperrors.NewForbidden("role cannot open tickets")
	}
}

// GetTicket returns a ticket visible to the caller.
func (s *TicketService) GetTicket(ctx context.Context, session domain.Session, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.visibleTicket(ctx, session, ticketID)
	if err != nil {
		return nil, err
	}
	return s.hydrateOne(ctx, ticket)
}

// ListTickets returns the caller's role-scoped tickets narrowed by filter.
func (s *TicketService) ListTickets(ctx context.Context, session domain.Session, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CategoryID: filter.CategoryID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
	}
	if err := applySessionScope(&repoFilter, session); err != nil {
		return nil, err
	}
	return s.list(ctx, repoFilter)
}

// ListByClient returns tickets owned by clientID.
func (s *TicketService) ListByClient(ctx context.Context, session domain.Session, clientID int64) ([]domain.Ticket, error) {
	if !session.IsAdmin() && session.UserID != clientID {
		return nil, apperrors.NewForbidden("cannot list tickets of another user")
	}
	return s.list(ctx, repository.TicketFilter{ClientID: &clientID})
}

// ListByAgent returns tickets assigned to agentID.
func (s *TicketService) ListByAgent(ctx context.Context, session domain.Session, agentID int64) ([]domain.Ticket, error) {
	if !session.IsAdmin() && session.UserID != agentID {
		return nil, apperrors.NewForbidden("cannot list tickets of another user")
	}
	return s.list(ctx, repository.TicketFilter{AgentID: &agentID})
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := hydrateTickets(ctx, s.users, s.categories, tickets); err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// SetStatus transitions the ticket and records one history entry in the same
// transaction.
func (s *TicketService) SetStatus(ctx context.Context, session domain.Session, ticketID int64, rawStatus, comment string) (*domain.Ticket, error) {
	status := rawStatus
	return s.ApplyUpdate(ctx, session, ticketID, TicketPatch{Status: &status, Comment: comment})
}

// ApplyUpdate applies a status change and/or an agent assignment as one unit.
// Either every part of the patch is stored or none is.
func (s *TicketService) ApplyUpdate(ctx context.Context, session domain.Session, ticketID int64, patch TicketPatch) (*domain.Ticket, error) {
	if patch.Status == nil && patch.AgentID == nil {
		return nil, apperrors.NewValidationError("nothing to update", map[string]any{"estado": "or idUsuarioAgente is required"})
	}

	var next domain.TicketStatus
	if patch.Status != nil {
		parsed, ok := domain.ParseTicketStatus(*patch.Status)
		if !ok {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"estado": *patch.Status})
		}
		next = parsed
	}
	if patch.AgentID != nil {
		if !session.IsAdmin() {
			return nil, apperrors.NewForbidden("only administrators assign agents")
		}
		if err := ensureAgent(ctx, s.users, *patch.AgentID); err != nil {
			return nil, err
		}
	}

	comment := strings.TrimSpace(patch.Comment)
	var (
		oldStatus domain.TicketStatus
		assigned  bool
	)
	updated, _, err := s.tickets.Update(ctx, ticketID, func(ticket *domain.Ticket) ([]domain.TicketHistory, error) {
		oldStatus = ticket.Status
		if patch.Status != nil && !canTransition(session, ticket) {
			return nil, apperrors.NewForbidden("only administrators or the assigned agent change status")
		}
		if patch.AgentID != nil {
			if err := assignAgent(ticket, *patch.AgentID); err != nil {
				return nil, err
			}
			assigned = true
		}
		if patch.Status == nil {
			return nil, nil
		}
		if s.strict && !isValidTransition(ticket.Status, next) {
			return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
				"estadoAnterior": ticket.Status,
				"estadoNuevo":    next,
			})
		}
		at := s.now()
		ticket.ApplyStatus(next, at)
		actor := session.UserID
		return []domain.TicketHistory{{
			OldStatus:   oldStatus,
			NewStatus:   next,
			ChangedByID: &actor,
			Comment:     comment,
			CreatedAt:   at,
		}}, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"idTicket": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if assigned {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: updated.ID,
			Actor:    events.ActorFromSession(session),
			Payload:  events.TicketAssignedPayload{AgentID: *updated.AgentID},
		})
	}
	if patch.Status != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			Actor:    events.ActorFromSession(session),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: updated.Status,
				Comment:   comment,
			},
		})
	}
	return s.hydrateOne(ctx, updated)
}

// ListHistory returns transitions of every ticket visible to the caller,
// newest first.
func (s *TicketService) ListHistory(ctx context.Context, session domain.Session) ([]domain.TicketHistory, error) {
	filter := repository.HistoryFilter{}
	switch session.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		filter.AgentID = &session.UserID
	case domain.RoleClient:
		filter.ClientID = &session.UserID
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	entries, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.hydrateHistory(ctx, entries); err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// TicketHistory returns the transitions of one ticket, oldest first.
func (s *TicketService) TicketHistory(ctx context.Context, session domain.Session, ticketID int64) ([]domain.TicketHistory, error) {
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.hydrateHistory(ctx, entries); err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) visibleTicket(ctx context.Context, session domain.Session, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"idTicket": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !ticket.VisibleTo(session) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) hydrateOne(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	list := []domain.Ticket{*ticket}
	if err := hydrateTickets(ctx, s.users, s.categories, list); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &list[0], nil
}

func (s *TicketService) hydrateHistory(ctx context.Context, entries []domain.TicketHistory) error {
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		if entry.ChangedByID != nil {
			ids = append(ids, *entry.ChangedByID)
		}
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ChangedByID == nil {
			continue
		}
		if user, ok := users[*entries[i].ChangedByID]; ok {
			entries[i].ChangedBy = &user
		}
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, event)
}

// hydrateTickets attaches client, agent and category records to each ticket.
func hydrateTickets(ctx context.Context, users repository.UserRepository, categories repository.CategoryRepository, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(tickets)*2)
	for _, ticket := range tickets {
		ids = append(ids, ticket.ClientID)
		if ticket.AgentID != nil {
			ids = append(ids, *ticket.AgentID)
		}
	}
	byID, err := users.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	cats, err := categories.List(ctx)
	if err != nil {
		return err
	}
	catByID := make(map[int64]domain.Category, len(cats))
	for _, cat := range cats {
		catByID[cat.ID] = cat
	}

	for i := range tickets {
		if client, ok := byID[tickets[i].ClientID]; ok {
			tickets[i].Client = &client
		}
		if tickets[i].AgentID != nil {
			if agent, ok := byID[*tickets[i].AgentID]; ok {
				tickets[i].Agent = &agent
			}
		}
		if tickets[i].CategoryID != nil {
			if cat, ok := catByID[*tickets[i].CategoryID]; ok {
				tickets[i].Category = &cat
			}
		}
	}
	return nil
}

func applySessionScope(filter *repository.TicketFilter, session domain.Session) error {
	switch session.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleAgent:
		filter.AgentID = &session.UserID
		return nil
	case domain.RoleClient:
		filter.ClientID = &session.UserID
		return nil
	default:
		return apperrors.NewForbidden("unknown role")
	}
}

func canTransition(session domain.Session, ticket *domain.Ticket) bool {
	if session.IsAdmin() {
		return true
	}
	return session.Role == domain.RoleAgent && ticket.AgentID != nil && *ticket.AgentID == session.UserID
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:    {domain.TicketStatusAssigned, domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusAssigned:   {domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:   {domain.TicketStatusInProgress},
	domain.TicketStatusCancelled:  {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
