package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CommentService manages ticket comment threads.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles repositories for comment service.
type CommentDependencies struct {
	CommentRepo repository.CommentRepository
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments:   deps.CommentRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AddComment appends a comment authored by the caller.
func (s *CommentService) AddComment(ctx context.Context, session domain.Session, ticketID int64, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("invalid comment", map[string]any{"contenido": "is required"})
	}
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		AuthorID: session.UserID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"idTicket": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if author, err := s.users.GetByID(ctx, session.UserID); err == nil {
		comment.Author = author
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticketID,
		Actor:    events.ActorFromSession(session),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListComments returns the ticket thread, oldest first.
func (s *CommentService) ListComments(ctx context.Context, session domain.Session, ticketID int64) ([]domain.Comment, error) {
	if _, err := s.visibleTicket(ctx, session, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]int64, 0, len(comments))
	for _, comment := range comments {
		ids = append(ids, comment.AuthorID)
	}
	authors, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range comments {
		if author, ok := authors[comments[i].AuthorID]; ok {
			comments[i].Author = &author
		}
	}
	return comments, nil
}

func (s *CommentService) visibleTicket(ctx context.Context, session domain.Session, ticketID int64) (*domain.Ticket, error) {
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
