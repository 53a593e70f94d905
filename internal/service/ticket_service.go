package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// TicketService owns the ticket lifecycle state machine. Every transition
// enters through a role-scoped method, is checked against the transition
// table and applied as a single conditional write.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	locations  repository.LocationRepository
	duplicates *DuplicateDetector
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the lifecycle controller.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	LocationRepo repository.LocationRepository
	Duplicates   *DuplicateDetector
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	CategoryCode string
	LocationCode string
}

// TicketUpdateInput describes requester edits to a NEW ticket.
type TicketUpdateInput struct {
	Title       *string
	Description *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		categories: deps.CategoryRepo,
		locations:  deps.LocationRepo,
		duplicates: deps.Duplicates,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateTicket validates references, computes the SLA deadline and creates
// the ticket in NEW status. Duplicate detection is advisory: matched codes
// are returned beside the created ticket, never as an error.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, []string, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, nil, apperrors.NewValidationError("title and description are required", nil)
	}

	category, err := s.categories.GetByCode(ctx, input.CategoryCode)
	if err != nil {
		return nil, nil, notFoundOr(err, "category", map[string]any{"category_code": input.CategoryCode})
	}
	location, err := s.locations.GetByCode(ctx, input.LocationCode)
	if err != nil {
		return nil, nil, notFoundOr(err, "location", map[string]any{"location_code": input.LocationCode})
	}

	var warnings []string
	if s.duplicates != nil {
		warnings, err = s.duplicates.Check(ctx, requesterID, title, category.ID, location.ID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
	}

	now := s.now()
	ticket := &domain.Ticket{
		Code:            generateTicketCode(),
		Title:           title,
		Description:     description,
		Status:          domain.TicketStatusNew,
		RequesterID:     requesterID,
		CategoryID:      category.ID,
		LocationID:      location.ID,
		CreatedAt:       now,
		ResolveDeadline: now.Add(time.Duration(category.ResolveHours()) * time.Hour),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if len(warnings) > 0 {
		s.logger.Info("duplicate candidates found on create",
			zap.String("ticket_code", ticket.Code),
			zap.Strings("duplicate_codes", warnings))
	}
	s.publish(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketCode: ticket.Code,
		Actor:      events.Actor{Role: domain.ActorRequester, UserID: requesterID},
		Payload: events.TicketCreatedPayload{
			Title:          ticket.Title,
			CategoryCode:   category.Code,
			LocationCode:   location.Code,
			RequesterID:    requesterID,
			DuplicateCodes: warnings,
		},
	})
	s.logger.Info("ticket created",
		zap.String("ticket_code", ticket.Code),
		zap.String("requester_id", requesterID))
	return ticket, warnings, nil
}

// UpdateTicket lets the requester amend title or description while the
// ticket is still NEW.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketCode, requesterID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != requesterID {
		return nil, apperrors.NewUnauthorized("you can only update your own tickets")
	}
	if ticket.Status != domain.TicketStatusNew {
		return nil, apperrors.NewValidationError("only NEW tickets can be updated",
			map[string]any{"current_status": string(ticket.Status)})
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// StartWork moves an ASSIGNED ticket to IN_PROGRESS. Only the assigned
// worker may start.
func (s *TicketService) StartWork(ctx context.Context, ticketCode, staffID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if err := requireAssignee(ticket, staffID); err != nil {
		return nil, err
	}
	if err := checkTransition(domain.ActorAssignee, ticket.Status, domain.TicketStatusInProgress); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusInProgress
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, ticket, oldStatus, domain.ActorAssignee, staffID,
		"Work on your ticket has started")
	s.logger.Info("work started",
		zap.String("ticket_code", ticket.Code),
		zap.String("staff_id", staffID))
	return ticket, nil
}

// Resolve completes work on an IN_PROGRESS ticket. Resolution notes are
// required and become part of the audit trail.
func (s *TicketService) Resolve(ctx context.Context, ticketCode, staffID, notes string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if err := requireAssignee(ticket, staffID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(notes) == "" {
		return nil, apperrors.NewValidationError("resolution notes are required when resolving a ticket", nil)
	}
	if err := checkTransition(domain.ActorAssignee, ticket.Status, domain.TicketStatusResolved); err != nil {
		return nil, err
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	ticket.ResolvedAt = &now
	ticket.AppendNote("[RESOLVED BY STAFF] " + strings.TrimSpace(notes))
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, ticket, oldStatus, domain.ActorAssignee, staffID,
		"Your ticket has been resolved: "+strings.TrimSpace(notes))
	s.logger.Info("ticket resolved",
		zap.String("ticket_code", ticket.Code),
		zap.String("staff_id", staffID))
	return ticket, nil
}

// CloseWithFeedback closes a RESOLVED ticket with a one-time 1-5 rating
// from the requester.
func (s *TicketService) CloseWithFeedback(ctx context.Context, ticketCode, requesterID string, rating int, comment string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != requesterID {
		return nil, apperrors.NewUnauthorized("you can only provide feedback on your own tickets")
	}
	if ticket.RatingStars != nil {
		return nil, apperrors.NewValidationError("feedback has already been provided", nil)
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5",
			map[string]any{"rating": rating})
	}
	if err := checkTransition(domain.ActorRequester, ticket.Status, domain.TicketStatusClosed); err != nil {
		return nil, err
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	ticket.RatingStars = &rating
	if strings.TrimSpace(comment) != "" {
		trimmed := strings.TrimSpace(comment)
		ticket.RatingComment = &trimmed
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishStatusChange(ctx, ticket, oldStatus, domain.ActorRequester, requesterID, "")
	s.logger.Info("ticket closed with feedback",
		zap.String("ticket_code", ticket.Code),
		zap.Int("rating_stars", rating))
	return ticket, nil
}

// Cancel terminates a ticket. Requesters may cancel their own NEW tickets;
// admins may cancel any non-terminal ticket. A reason is always required.
func (s *TicketService) Cancel(ctx context.Context, ticketCode, actorID, reason string, isAdmin bool) (*domain.Ticket, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("cancellation reason is required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusCancelled {
		return nil, apperrors.NewSameStatus(string(ticket.Status))
	}

	actor := domain.ActorRequester
	notePrefix := "[CANCELLED BY REQUESTER]"
	if isAdmin {
		actor = domain.ActorAdmin
		notePrefix = "[CANCELLED BY ADMIN]"
	} else if ticket.RequesterID != actorID {
		return nil, apperrors.NewUnauthorized("you can only cancel your own tickets")
	}
	if err := checkTransition(actor, ticket.Status, domain.TicketStatusCancelled); err != nil {
		return nil, err
	}

	now := s.now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusCancelled
	ticket.ClosedAt = &now
	ticket.AppendNote(notePrefix + " " + strings.TrimSpace(reason))
	if isAdmin && ticket.ManagedBy == nil {
		ticket.ManagedBy = &actorID
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}

	message := ""
	if isAdmin {
		message = "Your ticket has been cancelled by an administrator. Reason: " + strings.TrimSpace(reason)
	}
	s.publishStatusChange(ctx, ticket, oldStatus, actor, actorID, message)
	s.logger.Info("ticket cancelled",
		zap.String("ticket_code", ticket.Code),
		zap.String("actor_id", actorID),
		zap.Bool("admin", isAdmin))
	return ticket, nil
}

// Escalate records the managing admin on a ticket. It is a metadata
// update, not a status change, and is rejected on terminal tickets.
func (s *TicketService) Escalate(ctx context.Context, ticketCode, adminID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() || ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("cannot escalate a completed ticket",
			map[string]any{"current_status": string(ticket.Status)})
	}
	if ticket.ManagedBy == nil {
		ticket.ManagedBy = &adminID
	}
	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:       events.EventTicketEscalated,
		TicketCode: ticket.Code,
		Actor:      events.Actor{Role: domain.ActorAdmin, UserID: adminID},
		Payload:    events.TicketEscalatedPayload{ManagedBy: *ticket.ManagedBy},
	})
	s.logger.Info("ticket escalated",
		zap.String("ticket_code", ticket.Code),
		zap.String("admin_id", adminID))
	return ticket, nil
}

// GetTicket fetches a single ticket by code.
func (s *TicketService) GetTicket(ctx context.Context, ticketCode string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketCode)
}

// ListForRequester returns the requester's own tickets.
func (s *TicketService) ListForRequester(ctx context.Context, requesterID string, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &requesterID,
		Statuses:    statuses,
		Limit:       limit,
		Offset:      offset,
	})
}

// ListForAssignee returns tickets assigned to a staff worker.
func (s *TicketService) ListForAssignee(ctx context.Context, staffID string, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AssignedTo: &staffID,
		Statuses:   statuses,
		Limit:      limit,
		Offset:     offset,
	})
}

// ListAll returns tickets for the admin view.
func (s *TicketService) ListAll(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

func (s *TicketService) getTicket(ctx context.Context, code string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_code": code})
	}
	return ticket, nil
}

func (s *TicketService) save(ctx context.Context, ticket *domain.Ticket) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrStaleTicket) {
			return apperrors.NewConflict("ticket was modified concurrently, re-read and retry",
				map[string]any{"ticket_code": ticket.Code})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) publishStatusChange(ctx context.Context, ticket *domain.Ticket, oldStatus domain.TicketStatus, actor domain.TransitionActor, actorID, message string) {
	s.publish(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketCode: ticket.Code,
		Actor:      events.Actor{Role: actor, UserID: actorID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus:   oldStatus,
			NewStatus:   ticket.Status,
			RequesterID: ticket.RequesterID,
			Message:     message,
		},
	})
}

// requireAssignee ensures the acting staff is the ticket's assignee.
func requireAssignee(ticket *domain.Ticket, staffID string) error {
	if ticket.AssignedTo == nil || *ticket.AssignedTo != staffID {
		return apperrors.NewUnauthorized("you can only update tickets assigned to you")
	}
	return nil
}

// checkTransition validates an edge attempt, distinguishing idempotent
// re-application from an illegal transition.
func checkTransition(actor domain.TransitionActor, from, to domain.TicketStatus) error {
	if from == to {
		return apperrors.NewSameStatus(string(from))
	}
	if !domain.CanTransition(actor, from, to) {
		return apperrors.NewInvalidTransition(string(from), string(to))
	}
	return nil
}

func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func generateTicketCode() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
