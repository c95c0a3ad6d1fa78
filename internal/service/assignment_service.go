package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AssignAgent sets the ticket's agent. A ticket is assigned at most once; the
// check and the write happen under the row lock so concurrent callers cannot
// both win. Status is left untouched.
func (s *AssignmentService) AssignAgent(ctx context.Context, actor domain.Session, ticketID, agentID int64) (*domain.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only administrators assign agents")
	}
	if err := ensureAgent(ctx, s.users, agentID); err != nil {
		return nil, err
	}

	ticket, _, err := s.tickets.Update(ctx, ticketID, func(ticket *domain.Ticket) ([]domain.TicketHistory, error) {
		return nil, assignAgent(ticket, agentID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"idTicket": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.ActorFromSession(actor),
		Payload:  events.TicketAssignedPayload{AgentID: agentID},
	})

	list := []domain.Ticket{*ticket}
	if err := hydrateTickets(ctx, s.users, s.categories, list); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &list[0], nil
}

func ensureAgent(ctx context.Context, users repository.UserRepository, agentID int64) error {
	agent, err := users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("agent does not exist", map[string]any{"idUsuarioAgente": agentID})
		}
		return apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent {
		return apperrors.NewValidationError("user is not an agent", map[string]any{"idUsuarioAgente": agentID, "rol": agent.Role})
	}
	return nil
}

// assignAgent runs inside a ticket mutation, with the row already locked.
func assignAgent(ticket *domain.Ticket, agentID int64) error {
	if ticket.AgentID != nil {
		return apperrors.NewAlreadyAssigned(map[string]any{
			"idTicket":        ticket.ID,
			"idUsuarioAgente": *ticket.AgentID,
		})
	}
	ticket.AgentID = &agentID
	return nil
}
