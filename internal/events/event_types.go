package events

import (
	"time"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketOverdue       EventType = "ticket_overdue"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role   domain.TransitionActor `json:"role"`
	UserID string                 `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by the engine.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketCode string      `json:"ticket_code"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title          string   `json:"title"`
	CategoryCode   string   `json:"category_code"`
	LocationCode   string   `json:"location_code"`
	RequesterID    string   `json:"requester_id"`
	DuplicateCodes []string `json:"duplicate_codes,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	Title      string `json:"title"`
	Automatic  bool   `json:"automatic"`
	Workload   int    `json:"workload"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
	RequesterID string              `json:"requester_id"`
	Message     string              `json:"message,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	ManagedBy string `json:"managed_by"`
}

// TicketOverduePayload payload.
type TicketOverduePayload struct {
	OriginStatus domain.TicketStatus `json:"origin_status"`
	RequesterID  string              `json:"requester_id"`
	AssigneeID   *string             `json:"assignee_id,omitempty"`
	Deadline     time.Time           `json:"deadline"`
}
