package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util"
)

// SweepService force-expires open tickets past their resolution deadline.
// A sweep is idempotent: already-OVERDUE tickets no longer match the open
// filter, and a ticket that leaves the open set between read and write is
// skipped on version conflict instead of being resurrected.
type SweepService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	Processed int `json:"processed"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
}

// NewSweepService constructs the sweeper.
func NewSweepService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// Sweep transitions every open ticket whose deadline passed before now to
// OVERDUE, stamping closedAt and an audit line naming the status it
// expired from. It returns the number of tickets expired.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	overdue, err := s.tickets.ListOpenPastDeadline(ctx, now)
	if err != nil {
		return SweepResult{}, apperrors.MapError(err)
	}
	result := SweepResult{Processed: len(overdue)}
	if len(overdue) == 0 {
		s.logger.Debug("sweep found no overdue tickets")
		return result, nil
	}

	for i := range overdue {
		ticket := &overdue[i]
		origin := ticket.Status
		closedAt := now

		ticket.Status = domain.TicketStatusOverdue
		ticket.ClosedAt = &closedAt
		ticket.AppendNote(fmt.Sprintf("[OVERDUE BY SYSTEM] Ticket exceeded SLA deadline at %s. %s",
			now.UTC().Format(time.RFC3339), originContext(origin)))

		if err := s.tickets.Update(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrStaleTicket) {
				// the ticket moved between our read and write; whoever
				// won owns its new state
				result.Skipped++
				s.logger.Debug("sweep skipped concurrently modified ticket",
					zap.String("ticket_code", ticket.Code))
				continue
			}
			return result, apperrors.MapError(err)
		}
		result.Expired++

		s.publishOverdue(ctx, ticket, origin, now)
		s.logger.Warn("ticket marked overdue",
			zap.String("ticket_code", ticket.Code),
			zap.String("origin_status", string(origin)),
			zap.Time("deadline", ticket.ResolveDeadline))
	}

	s.logger.Info("sweep completed",
		zap.Int("processed", result.Processed),
		zap.Int("expired", result.Expired),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// originContext explains what stalled, for post-mortems.
func originContext(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusNew:
		return "Ticket was never assigned to staff. (was NEW)"
	case domain.TicketStatusAssigned:
		return "Staff did not start working on the ticket. (was ASSIGNED)"
	case domain.TicketStatusInProgress:
		return "Staff did not complete the ticket in time. (was IN_PROGRESS)"
	default:
		return "(was " + string(status) + ")"
	}
}

func (s *SweepService) publishOverdue(ctx context.Context, ticket *domain.Ticket, origin domain.TicketStatus, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventTicketOverdue,
		TicketCode: ticket.Code,
		Actor:      events.Actor{Role: domain.ActorSystem},
		Timestamp:  now,
		Payload: events.TicketOverduePayload{
			OriginStatus: origin,
			RequesterID:  ticket.RequesterID,
			AssigneeID:   ticket.AssignedTo,
			Deadline:     ticket.ResolveDeadline,
		},
	})
}
