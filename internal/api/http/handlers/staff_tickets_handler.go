package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// StaffTicketsHandler handles the ticket mutations performed by agents and
// administrators.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, assignments: assignmentService}
}

// SetStatus PUT /api/Ticket/:id/status. The body is a bare JSON string such
// as "Resuelto", or an object with estado and comentario.
func (h *StaffTicketsHandler) SetStatus(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	req, err := decodeStatusBody(c.Body())
	if err != nil {
		return err
	}
	ticket, err := h.tickets.SetStatus(c.UserContext(), session, ticketID, req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(*ticket))
}

// Assign PUT /api/Ticket/:id/assign. The body is a bare JSON integer, or an
// object with idUsuarioAgente.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	agentID, err := decodeAssignBody(c.Body())
	if err != nil {
		return err
	}
	ticket, err := h.assignments.AssignAgent(c.UserContext(), session, ticketID, agentID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(*ticket))
}

// Patch PATCH /api/Ticket/:id applies status and assignment atomically.
func (h *StaffTicketsHandler) Patch(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.PatchTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.ApplyUpdate(c.UserContext(), session, ticketID, service.TicketPatch{
		Status:  req.Status,
		AgentID: req.AgentRef(),
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(*ticket))
}

func decodeStatusBody(body []byte) (dto.StatusRequest, error) {
	var req dto.StatusRequest
	body = bytes.TrimSpace(body)
	var err error
	if len(body) > 0 && body[0] == '{' {
		err = json.Unmarshal(body, &req)
	} else {
		err = json.Unmarshal(body, &req.Status)
	}
	if err != nil {
		return req, apperrors.NewValidationError("invalid payload", map[string]any{"estado": "must be a JSON string"})
	}
	return req, nil
}

func decodeAssignBody(body []byte) (int64, error) {
	var req dto.AssignRequest
	body = bytes.TrimSpace(body)
	var err error
	if len(body) > 0 && body[0] == '{' {
		err = json.Unmarshal(body, &req)
	} else {
		err = json.Unmarshal(body, &req.AgentID)
	}
	if err != nil || req.AgentID <= 0 {
		return 0, apperrors.NewValidationError("invalid payload", map[string]any{"idUsuarioAgente": "must be a positive integer"})
	}
	return int64(req.AgentID), nil
}
