package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// ReportsHandler serves dashboard aggregates.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Summary GET /api/Report/summary?rango=.
func (h *ReportsHandler) Summary(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), session, c.Query("rango"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
