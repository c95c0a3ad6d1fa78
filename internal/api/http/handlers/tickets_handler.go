package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketsHandler serves ticket reads and creation for every role. Results
// are scoped by the caller's session in the service layer.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/Ticket.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), session, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryRef(),
		ClientID:    req.ClientID.Ptr(),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(*ticket))
}

// ListTickets GET /api/Ticket.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	query, err := dto.ParseTicketListQuery(c.Query("estado"), c.Query("prioridad"), c.Query("categoria"))
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), session, service.TicketListFilter{
		Statuses:   query.Statuses,
		Priorities: query.Priorities,
		CategoryID: query.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// ListByClient GET /api/Ticket/client/:id.
func (h *TicketsHandler) ListByClient(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	clientID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tickets, err := h.service.ListByClient(c.UserContext(), session, clientID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// ListByAgent GET /api/Ticket/agent/:id.
func (h *TicketsHandler) ListByAgent(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	agentID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tickets, err := h.service.ListByAgent(c.UserContext(), session, agentID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// GetTicket GET /api/Ticket/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), session, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(*ticket))
}

// ListHistory GET /api/Ticket/History.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryList(entries))
}

// TicketHistory GET /api/Ticket/:id/history.
func (h *TicketsHandler) TicketHistory(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.TicketHistory(c.UserContext(), session, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryList(entries))
}
