package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// StaffTicketsHandler manages worker-facing ticket endpoints.
type StaffTicketsHandler struct {
	service *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{service: ticketService}
}

// ListAssigned GET /staff/tickets.
func (h *StaffTicketsHandler) ListAssigned(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	statuses, limit, offset := parseListQuery(c)
	tickets, err := h.service.ListForAssignee(c.Context(), principal.User.ID, statuses, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// StartWork POST /staff/tickets/:code/start.
func (h *StaffTicketsHandler) StartWork(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.StartWork(c.Context(), c.Params("code"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ResolveTicket POST /staff/tickets/:code/resolve.
func (h *StaffTicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Resolve(c.Context(), c.Params("code"), principal.User.ID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}
