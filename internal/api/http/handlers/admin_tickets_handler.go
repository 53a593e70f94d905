package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/observability"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// AdminTicketsHandler manages admin endpoints: assignment, escalation,
// cancellation, workload reporting and the manual sweep trigger.
type AdminTicketsHandler struct {
	tickets    *service.TicketService
	assignment *service.AssignmentService
	sweeper    *service.SweepService
	metrics    *observability.Metrics
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(
	tickets *service.TicketService,
	assignment *service.AssignmentService,
	sweeper *service.SweepService,
	metrics *observability.Metrics,
) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: tickets, assignment: assignment, sweeper: sweeper, metrics: metrics}
}

// ListAll GET /admin/tickets.
func (h *AdminTicketsHandler) ListAll(c *fiber.Ctx) error {
	statuses, limit, offset := parseListQuery(c)
	filter := repository.TicketFilter{Statuses: statuses, Limit: limit, Offset: offset}
	if code := c.Query("code"); code != "" {
		filter.Code = &code
	}
	if requester := c.Query("requester_id"); requester != "" {
		filter.RequesterID = &requester
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	tickets, err := h.tickets.ListAll(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// AssignAuto POST /admin/tickets/:code/assign/auto.
func (h *AdminTicketsHandler) AssignAuto(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignment.AssignAutomatically(c.Context(), c.Params("code"), principal.User.ID)
	if err != nil {
		return err
	}
	h.metrics.RecordTransition("NEW", string(ticket.Status))
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AssignManual POST /admin/tickets/:code/assign.
func (h *AdminTicketsHandler) AssignManual(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignManualRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffCode == "" {
		return apperrors.NewValidationError("staff_code required", nil)
	}
	ticket, err := h.assignment.AssignManually(c.Context(), c.Params("code"), req.StaffCode, principal.User.ID)
	if err != nil {
		return err
	}
	h.metrics.RecordTransition("NEW", string(ticket.Status))
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CancelTicket POST /admin/tickets/:code/cancel.
func (h *AdminTicketsHandler) CancelTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CancelTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Cancel(c.Context(), c.Params("code"), principal.User.ID, req.Reason, true)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// EscalateTicket POST /admin/tickets/:code/escalate.
func (h *AdminTicketsHandler) EscalateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Escalate(c.Context(), c.Params("code"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// StaffWorkload GET /admin/departments/:code/workload.
func (h *AdminTicketsHandler) StaffWorkload(c *fiber.Ctx) error {
	workload, err := h.assignment.StaffWorkload(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}
	items := make([]dto.StaffWorkloadResponse, 0, len(workload))
	for _, w := range workload {
		items = append(items, dto.StaffWorkloadResponse{
			StaffCode:         w.StaffCode,
			StaffName:         w.StaffName,
			DepartmentCode:    w.DepartmentCode,
			ActiveTicketCount: w.ActiveTicketCount,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// TriggerSweep POST /admin/sweep.
func (h *AdminTicketsHandler) TriggerSweep(c *fiber.Ctx) error {
	result, err := h.sweeper.Sweep(c.Context(), time.Now())
	if err != nil {
		return err
	}
	h.metrics.RecordSweep(result.Expired)
	return c.JSON(fiber.Map{"data": dto.SweepResponse{
		Processed: result.Processed,
		Expired:   result.Expired,
		Skipped:   result.Skipped,
	}})
}
