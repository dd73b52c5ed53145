package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civic-kit/complaint-service/internal/api/dto"
	"github.com/civic-kit/complaint-service/internal/auth"
	"github.com/civic-kit/complaint-service/internal/domain"
	"github.com/civic-kit/complaint-service/internal/repository"
	"github.com/civic-kit/complaint-service/internal/service"
	"github.com/civic-kit/complaint-service/pkg/util"
)

// TicketsHandler manages complaint ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return util.NewUnauthorized("citizen required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || req.Description == "" {
		return util.NewValidationError("category_id and description required", nil)
	}

	ticket, err := h.service.Create(c.Context(), service.TicketCreateInput{
		CitizenID:   principal.Citizen.ID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// List GET /tickets. Citizens see their own tickets; staff see everything.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}

	filter := parseTicketQuery(c)
	if principal.Citizen != nil {
		citizenID := principal.Citizen.ID
		filter.CitizenID = &citizenID
	}

	tickets, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Citizen != nil && ticket.CitizenID != principal.Citizen.ID {
		return util.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdateStatus PATCH /tickets/:id/status. Staff only.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return util.NewValidationError("status required", nil)
	}

	actorID := principal.Staff.ID
	ticket, err := h.service.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.Note, &actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Assign POST /tickets/:id/assign. Staff only.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.StaffID == "" {
		return util.NewValidationError("staff_id required", nil)
	}

	ticket, err := h.service.Assign(c.Context(), c.Params("id"), req.StaffID, principal.Staff.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// AddAttachment POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	var req dto.AddAttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	var uploadedBy *string
	if principal.Citizen != nil {
		uploadedBy = &principal.Citizen.ID
	} else if principal.Staff != nil {
		uploadedBy = &principal.Staff.ID
	}

	attachment, err := h.service.AddAttachment(c.Context(), c.Params("id"), service.AttachmentInput{
		FileURL:  req.FileURL,
		FileType: req.FileType,
	}, uploadedBy)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromAttachment(attachment)})
}

// Logs GET /tickets/:id/logs. Staff only.
func (h *TicketsHandler) Logs(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	limit, offset := parsePaging(c)
	logs, err := h.service.GetLogs(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketLogResponse, 0, len(logs))
	for i := range logs {
		items = append(items, dto.FromTicketLog(&logs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Remove DELETE /tickets/:id. Staff only; the ticket is soft-deleted.
func (h *TicketsHandler) Remove(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return util.NewForbidden("staff required")
	}
	actorID := principal.Staff.ID
	if err := h.service.Remove(c.Context(), c.Params("id"), &actorID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if raw := c.Query("category_id"); raw != "" {
		categoryID := raw
		filter.CategoryID = &categoryID
	}
	filter.Limit, filter.Offset = parsePaging(c)
	return filter
}

func parsePaging(c *fiber.Ctx) (limit, offset int) {
	limit = 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
