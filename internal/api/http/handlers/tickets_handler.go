package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// TicketsHandler manages requester-facing ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" || req.CategoryCode == "" || req.LocationCode == "" {
		return apperrors.NewValidationError("title, description, category_code, location_code required", nil)
	}

	ticket, warnings, err := h.service.CreateTicket(c.Context(), principal.User.ID, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryCode: req.CategoryCode,
		LocationCode: req.LocationCode,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CreateTicketResponse{
		Ticket:            ticketDetail(ticket),
		DuplicateWarnings: warnings,
	}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	statuses, limit, offset := parseListQuery(c)
	tickets, err := h.service.ListForRequester(c.Context(), principal.User.ID, statuses, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:code.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("code"))
	if err != nil {
		return err
	}
	if !canViewTicket(principal, ticket) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_code": c.Params("code")})
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateTicket PATCH /tickets/:code.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.Context(), c.Params("code"), principal.User.ID, service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CancelTicket POST /tickets/:code/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CancelTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Cancel(c.Context(), c.Params("code"), principal.User.ID, req.Reason, false)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// SubmitFeedback POST /tickets/:code/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CloseWithFeedback(c.Context(), c.Params("code"), principal.User.ID, req.RatingStars, req.RatingComment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func canViewTicket(principal *auth.Principal, ticket *domain.Ticket) bool {
	switch principal.Role() {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return ticket.AssignedTo != nil && *ticket.AssignedTo == principal.User.ID
	default:
		return ticket.RequesterID == principal.User.ID
	}
}

func parseListQuery(c *fiber.Ctx) ([]domain.TicketStatus, int, int) {
	var statuses []domain.TicketStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			statuses = append(statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return statuses, pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		Code:            ticket.Code,
		Title:           ticket.Title,
		Status:          ticket.Status,
		AssignedTo:      ticket.AssignedTo,
		CreatedAt:       ticket.CreatedAt,
		ResolveDeadline: ticket.ResolveDeadline,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		Code:            ticket.Code,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Note:            ticket.Note,
		Status:          ticket.Status,
		RequesterID:     ticket.RequesterID,
		AssignedTo:      ticket.AssignedTo,
		ManagedBy:       ticket.ManagedBy,
		CategoryID:      ticket.CategoryID,
		LocationID:      ticket.LocationID,
		ContactPhone:    ticket.ContactPhone,
		CreatedAt:       ticket.CreatedAt,
		ResolveDeadline: ticket.ResolveDeadline,
		ResolvedAt:      ticket.ResolvedAt,
		ClosedAt:        ticket.ClosedAt,
		RatingStars:     ticket.RatingStars,
		RatingComment:   ticket.RatingComment,
	}
}
