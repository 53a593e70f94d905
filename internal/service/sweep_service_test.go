package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
)

func seedSweepTicket(t *testing.T, tickets *memTicketRepo, code string, status domain.TicketStatus, deadline time.Time) {
	t.Helper()
	ticket := &domain.Ticket{
		Code:            code,
		Title:           "leaking tap",
		Description:     "tap will not close",
		Status:          status,
		RequesterID:     "user-1",
		CategoryID:      "cat-1",
		LocationID:      "loc-1",
		CreatedAt:       deadline.Add(-24 * time.Hour),
		ResolveDeadline: deadline,
	}
	if status == domain.TicketStatusAssigned || status == domain.TicketStatusInProgress {
		ticket.AssignedTo = strPtr("staff-1")
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))
}

func TestSweepExpiresOpenTicketsPastDeadline(t *testing.T) {
	tickets := newMemTicketRepo()
	dispatcher := &recordingDispatcher{}
	sweeper := NewSweepService(tickets, dispatcher, nil)

	seedSweepTicket(t, tickets, "TKT-NEW", domain.TicketStatusNew, baseTime.Add(-time.Hour))
	seedSweepTicket(t, tickets, "TKT-WIP", domain.TicketStatusInProgress, baseTime.Add(-2*time.Hour))
	seedSweepTicket(t, tickets, "TKT-FUTURE", domain.TicketStatusAssigned, baseTime.Add(time.Hour))
	seedSweepTicket(t, tickets, "TKT-DONE", domain.TicketStatusResolved, baseTime.Add(-3*time.Hour))

	result, err := sweeper.Sweep(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Expired)
	assert.Equal(t, 0, result.Skipped)

	expired, err := tickets.GetByCode(context.Background(), "TKT-NEW")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOverdue, expired.Status)
	require.NotNil(t, expired.ClosedAt)
	assert.Equal(t, baseTime, *expired.ClosedAt)
	assert.Contains(t, expired.Note, "[OVERDUE BY SYSTEM] Ticket exceeded SLA deadline at "+baseTime.UTC().Format(time.RFC3339))
	assert.Contains(t, expired.Note, "never assigned")
	assert.Contains(t, expired.Note, "(was NEW)")

	wip, err := tickets.GetByCode(context.Background(), "TKT-WIP")
	require.NoError(t, err)
	assert.Contains(t, wip.Note, "(was IN_PROGRESS)")

	untouched, err := tickets.GetByCode(context.Background(), "TKT-FUTURE")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, untouched.Status)

	resolved, err := tickets.GetByCode(context.Background(), "TKT-DONE")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	published := dispatcher.byType(events.EventTicketOverdue)
	require.Len(t, published, 2)
	payload, ok := published[0].Payload.(events.TicketOverduePayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusNew, payload.OriginStatus)
}

func TestSweepIsIdempotent(t *testing.T) {
	tickets := newMemTicketRepo()
	sweeper := NewSweepService(tickets, nil, nil)
	seedSweepTicket(t, tickets, "TKT-1", domain.TicketStatusNew, baseTime.Add(-time.Hour))

	first, err := sweeper.Sweep(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Expired)

	second, err := sweeper.Sweep(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 0, second.Expired)
}

func TestSweepSkipsConcurrentlyModifiedTickets(t *testing.T) {
	tickets := newMemTicketRepo()
	sweeper := NewSweepService(tickets, nil, nil)
	seedSweepTicket(t, tickets, "TKT-RACE", domain.TicketStatusNew, baseTime.Add(-time.Hour))
	seedSweepTicket(t, tickets, "TKT-OK", domain.TicketStatusNew, baseTime.Add(-time.Hour))
	tickets.stale["TKT-RACE"] = true

	result, err := sweeper.Sweep(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Skipped)

	raced, err := tickets.GetByCode(context.Background(), "TKT-RACE")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, raced.Status)
}
