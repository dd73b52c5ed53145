package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-kit/complaint-service/internal/api/dto"
	"github.com/civic-kit/complaint-service/internal/auth"
	"github.com/civic-kit/complaint-service/internal/service"
	"github.com/civic-kit/complaint-service/pkg/util"
)

// SlaHandler exposes the SLA monitoring surface for staff.
type SlaHandler struct {
	service *service.SlaService
}

// NewSlaHandler constructs handler.
func NewSlaHandler(slaService *service.SlaService) *SlaHandler {
	return &SlaHandler{service: slaService}
}

// ListEscalations GET /sla/escalations.
func (h *SlaHandler) ListEscalations(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	limit, offset := parsePaging(c)
	escalations, err := h.service.ListEscalations(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(escalations))
	for i := range escalations {
		items = append(items, dto.FromEscalation(&escalations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListOverdue GET /sla/overdue.
func (h *SlaHandler) ListOverdue(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	limit, offset := parsePaging(c)
	tickets, err := h.service.ListOverdueTickets(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ResolveEscalation POST /sla/escalations/:id/resolve.
func (h *SlaHandler) ResolveEscalation(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	esc, err := h.service.ResolveEscalation(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromEscalation(esc)})
}
