package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ReportInvalidator drops cached aggregates that embed category names.
type ReportInvalidator interface {
	Invalidate(ctx context.Context)
}

// CategoryService manages the ticket classification labels.
type CategoryService struct {
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
	reports    ReportInvalidator
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, tickets repository.TicketRepository) *CategoryService {
	return &CategoryService{categories: categories, tickets: tickets}
}

// SetReportInvalidator registers the cache cleared after category writes.
func (s *CategoryService) SetReportInvalidator(reports ReportInvalidator) {
	s.reports = reports
}

func (s *CategoryService) invalidateReports(ctx context.Context) {
	if s.reports != nil {
		s.reports.Invalidate(ctx)
	}
}

func requireAdmin(actor domain.Session) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateCategory adds a category with a unique name.
func (s *CategoryService) CreateCategory(ctx context.Context, actor domain.Session, name string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category := &domain.Category{Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"nombre": "is required"})
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, mapCategoryError(err, category)
	}
	s.invalidateReports(ctx)
	return category, nil
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, actor domain.Session, id int64, name string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	category := &domain.Category{ID: id, Name: strings.TrimSpace(name)}
	if category.Name == "" {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"nombre": "is required"})
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, mapCategoryError(err, category)
	}
	s.invalidateReports(ctx)
	return category, nil
}

// DeleteCategory removes a category no ticket references.
func (s *CategoryService) DeleteCategory(ctx context.Context, actor domain.Session, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return mapCategoryError(err, &domain.Category{ID: id})
	}
	inUse, err := s.tickets.CountByCategory(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if inUse > 0 {
		return apperrors.NewCategoryInUse(id)
	}
	// A ticket created after the count still trips the foreign key.
	if err := s.categories.Delete(ctx, id); err != nil {
		return mapCategoryError(err, &domain.Category{ID: id})
	}
	s.invalidateReports(ctx)
	return nil
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryError(err, &domain.Category{ID: id})
	}
	return category, nil
}

// ListCategories returns every category ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

func mapCategoryError(err error, category *domain.Category) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("category", map[string]any{"id_categoria": category.ID})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("category name already exists", map[string]any{"nombre": category.Name})
	case errors.Is(err, repository.ErrInUse):
		return apperrors.NewCategoryInUse(category.ID)
	default:
		return apperrors.MapError(err)
	}
}
