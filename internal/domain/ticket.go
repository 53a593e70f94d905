package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
	TicketStatusOverdue    TicketStatus = "OVERDUE"
)

// AllTicketStatuses lists every defined status value.
var AllTicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
	TicketStatusOverdue,
}

// ActiveStatuses are the open, unresolved states. Workload counting and
// duplicate detection consider only these.
var ActiveStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
}

// IsTerminal reports whether no outgoing transition exists from s.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusClosed, TicketStatusCancelled, TicketStatusOverdue:
		return true
	}
	return false
}

// IsActive reports whether s is one of the open statuses.
func (s TicketStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for reported issues.
type Ticket struct {
	ID              string
	Code            string
	Title           string
	Description     string
	Note            string
	Status          TicketStatus
	RequesterID     string
	AssignedTo      *string
	ManagedBy       *string
	CategoryID      string
	LocationID      string
	ContactPhone    string
	CreatedAt       time.Time
	ResolveDeadline time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	RatingStars     *int
	RatingComment   *string
	// Version is the store's optimistic-concurrency counter; a stale
	// write must be rejected by the repository, never applied.
	Version int64
}

// AppendNote adds an audit line to the ticket's note trail.
func (t *Ticket) AppendNote(line string) {
	if t.Note == "" {
		t.Note = line
		return
	}
	t.Note = t.Note + "\n" + line
}
