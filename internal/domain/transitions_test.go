package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTableEdges(t *testing.T) {
	allowed := map[[2]TicketStatus]bool{
		{TicketStatusNew, TicketStatusAssigned}:         true,
		{TicketStatusNew, TicketStatusCancelled}:        true,
		{TicketStatusNew, TicketStatusOverdue}:          true,
		{TicketStatusAssigned, TicketStatusInProgress}:  true,
		{TicketStatusAssigned, TicketStatusCancelled}:   true,
		{TicketStatusAssigned, TicketStatusOverdue}:     true,
		{TicketStatusInProgress, TicketStatusResolved}:  true,
		{TicketStatusInProgress, TicketStatusCancelled}: true,
		{TicketStatusInProgress, TicketStatusOverdue}:   true,
		{TicketStatusResolved, TicketStatusClosed}:      true,
		{TicketStatusResolved, TicketStatusCancelled}:   true,
	}

	for _, from := range AllTicketStatuses {
		for _, to := range AllTicketStatuses {
			expected := allowed[[2]TicketStatus{from, to}]
			assert.Equal(t, expected, TransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, status := range []TicketStatus{TicketStatusClosed, TicketStatusCancelled, TicketStatusOverdue} {
		assert.True(t, status.IsTerminal())
		assert.Empty(t, NextStatuses(status))
	}
	for _, status := range []TicketStatus{TicketStatusNew, TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved} {
		assert.False(t, status.IsTerminal())
		assert.NotEmpty(t, NextStatuses(status))
	}
}

func TestCanTransitionActorCapabilities(t *testing.T) {
	cases := []struct {
		name  string
		actor TransitionActor
		from  TicketStatus
		to    TicketStatus
		want  bool
	}{
		{"admin assigns new", ActorAdmin, TicketStatusNew, TicketStatusAssigned, true},
		{"requester cannot assign", ActorRequester, TicketStatusNew, TicketStatusAssigned, false},
		{"requester cancels own new", ActorRequester, TicketStatusNew, TicketStatusCancelled, true},
		{"requester cannot cancel assigned", ActorRequester, TicketStatusAssigned, TicketStatusCancelled, false},
		{"assignee starts work", ActorAssignee, TicketStatusAssigned, TicketStatusInProgress, true},
		{"admin cannot start work", ActorAdmin, TicketStatusAssigned, TicketStatusInProgress, false},
		{"assignee resolves", ActorAssignee, TicketStatusInProgress, TicketStatusResolved, true},
		{"requester closes resolved", ActorRequester, TicketStatusResolved, TicketStatusClosed, true},
		{"assignee cannot close", ActorAssignee, TicketStatusResolved, TicketStatusClosed, false},
		{"admin cancels resolved", ActorAdmin, TicketStatusResolved, TicketStatusCancelled, true},
		{"system expires new", ActorSystem, TicketStatusNew, TicketStatusOverdue, true},
		{"system expires in progress", ActorSystem, TicketStatusInProgress, TicketStatusOverdue, true},
		{"system cannot expire resolved", ActorSystem, TicketStatusResolved, TicketStatusOverdue, false},
		{"no edge out of closed", ActorAdmin, TicketStatusClosed, TicketStatusCancelled, false},
		{"no edge out of overdue", ActorAdmin, TicketStatusOverdue, TicketStatusClosed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.actor, tc.from, tc.to))
		})
	}
}

func TestIsActive(t *testing.T) {
	for _, status := range ActiveStatuses {
		assert.True(t, status.IsActive())
	}
	for _, status := range []TicketStatus{TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled, TicketStatusOverdue} {
		assert.False(t, status.IsActive())
	}
}

func TestAppendNote(t *testing.T) {
	ticket := &Ticket{}
	ticket.AppendNote("first line")
	assert.Equal(t, "first line", ticket.Note)
	ticket.AppendNote("second line")
	assert.Equal(t, "first line\nsecond line", ticket.Note)
}
