package dto

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CreateTicketRequest payload. The dashboard also sends estado and
// idUsuarioAgente on creation; both are ignored since new tickets always
// start Pendiente and unassigned.
type CreateTicketRequest struct {
	Title       string `json:"titulo" validate:"required,max=200"`
	Description string `json:"descripcion" validate:"required"`
	Priority    string `json:"prioridad" validate:"max=20"`
	CategoryID  ID     `json:"id_categoria"`
	Category    ID     `json:"categoria"`
	ClientID    ID     `json:"idUsuarioCliente"`
}

// CategoryRef returns the referenced category, preferring id_categoria.
func (r CreateTicketRequest) CategoryRef() *int64 {
	if id := r.CategoryID.Ptr(); id != nil {
		return id
	}
	return r.Category.Ptr()
}

// PatchTicketRequest applies a status change and an assignment together.
type PatchTicketRequest struct {
	Status  *string `json:"estado"`
	AgentID *ID     `json:"idUsuarioAgente"`
	Comment string  `json:"comentario" validate:"max=2000"`
}

// AgentRef returns the requested agent id, nil when absent.
func (r PatchTicketRequest) AgentRef() *int64 {
	if r.AgentID == nil {
		return nil
	}
	return r.AgentID.Ptr()
}

// StatusRequest is the object form of a status change body.
type StatusRequest struct {
	Status  string `json:"estado"`
	Comment string `json:"comentario"`
}

// AssignRequest is the object form of an assignment body.
type AssignRequest struct {
	AgentID ID `json:"idUsuarioAgente"`
}

// TicketListQuery captures query filters for listing.
type TicketListQuery struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *int64
}

// ParseTicketListQuery reads comma separated estado and prioridad values
// and an optional categoria id.
func ParseTicketListQuery(statuses, priorities, category string) (TicketListQuery, error) {
	var query TicketListQuery
	details := map[string]any{}
	for _, raw := range splitCSV(statuses) {
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			details["estado"] = "unknown status " + raw
			continue
		}
		query.Statuses = append(query.Statuses, status)
	}
	for _, raw := range splitCSV(priorities) {
		priority, ok := domain.ParseTicketPriority(raw)
		if !ok {
			details["prioridad"] = "unknown priority " + raw
			continue
		}
		query.Priorities = append(query.Priorities, priority)
	}
	if category = strings.TrimSpace(category); category != "" {
		id, err := strconv.ParseInt(category, 10, 64)
		if err != nil || id <= 0 {
			details["categoria"] = "must be a positive integer"
		} else {
			query.CategoryID = &id
		}
	}
	if len(details) > 0 {
		return TicketListQuery{}, apperrors.NewValidationError("invalid filters", details)
	}
	return query, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TicketResponse is the full ticket view with its parties and category
// embedded when known.
type TicketResponse struct {
	ID           int64                 `json:"idTicket"`
	Title        string                `json:"titulo"`
	Description  string                `json:"descripcion"`
	Status       domain.TicketStatus   `json:"estado"`
	Priority     domain.TicketPriority `json:"prioridad"`
	CreatedAt    time.Time             `json:"fechaCreacion"`
	UpdatedAt    time.Time             `json:"fechaActualizacion"`
	ResolvedAt   *time.Time            `json:"fechaResolucion"`
	ClientID     int64                 `json:"idUsuarioCliente"`
	AgentID      *int64                `json:"idUsuarioAgente"`
	CategoryID   *int64                `json:"id_categoria"`
	Client       *UserResponse         `json:"usuarioCliente"`
	Agent        *UserResponse         `json:"usuarioAgente"`
	CategoryInfo *CategoryResponse     `json:"categoria"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(ticket domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ResolvedAt:  ticket.ResolvedAt,
		ClientID:    ticket.ClientID,
		AgentID:     ticket.AgentID,
		CategoryID:  ticket.CategoryID,
		Client:      userResponsePtr(ticket.Client),
		Agent:       userResponsePtr(ticket.Agent),
	}
	if ticket.Category != nil {
		category := NewCategoryResponse(*ticket.Category)
		resp.CategoryInfo = &category
	}
	return resp
}

// NewTicketList maps tickets.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, NewTicketResponse(ticket))
	}
	return items
}

// HistoryResponse is one status change record.
type HistoryResponse struct {
	ID        int64               `json:"id"`
	TicketID  int64               `json:"idTicket"`
	OldStatus domain.TicketStatus `json:"estadoAnterior"`
	NewStatus domain.TicketStatus `json:"estadoNuevo"`
	Date      time.Time           `json:"fecha"`
	UserID    *int64              `json:"idUsuario"`
	User      string              `json:"usuario"`
	Comment   string              `json:"comentario"`
}

// NewHistoryList maps history entries. The actor is rendered by full name.
func NewHistoryList(entries []domain.TicketHistory) []HistoryResponse {
	items := make([]HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		item := HistoryResponse{
			ID:        entry.ID,
			TicketID:  entry.TicketID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Date:      entry.CreatedAt,
			UserID:    entry.ChangedByID,
			Comment:   entry.Comment,
		}
		if entry.ChangedBy != nil {
			item.User = entry.ChangedBy.FullName()
		}
		items = append(items, item)
	}
	return items
}
