package dto

import (
	"time"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CategoryCode string `json:"category_code"`
	LocationCode string `json:"location_code"`
}

// UpdateTicketRequest amends a NEW ticket.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CancelTicketRequest payload.
type CancelTicketRequest struct {
	Reason string `json:"reason"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Notes string `json:"notes"`
}

// FeedbackRequest closes a resolved ticket with a rating.
type FeedbackRequest struct {
	RatingStars   int    `json:"rating_stars"`
	RatingComment string `json:"rating_comment"`
}

// AssignManualRequest picks a specific worker.
type AssignManualRequest struct {
	StaffCode string `json:"staff_code"`
}

// TicketSummary response.
type TicketSummary struct {
	Code            string              `json:"code"`
	Title           string              `json:"title"`
	Status          domain.TicketStatus `json:"status"`
	AssignedTo      *string             `json:"assigned_to"`
	CreatedAt       time.Time           `json:"created_at"`
	ResolveDeadline time.Time           `json:"resolve_deadline"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	Code            string              `json:"code"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Note            string              `json:"note,omitempty"`
	Status          domain.TicketStatus `json:"status"`
	RequesterID     string              `json:"requester_id"`
	AssignedTo      *string             `json:"assigned_to"`
	ManagedBy       *string             `json:"managed_by"`
	CategoryID      string              `json:"category_id"`
	LocationID      string              `json:"location_id"`
	ContactPhone    string              `json:"contact_phone,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ResolveDeadline time.Time           `json:"resolve_deadline"`
	ResolvedAt      *time.Time          `json:"resolved_at"`
	ClosedAt        *time.Time          `json:"closed_at"`
	RatingStars     *int                `json:"rating_stars"`
	RatingComment   *string             `json:"rating_comment"`
}

// CreateTicketResponse pairs a created ticket with advisory duplicate
// warnings.
type CreateTicketResponse struct {
	Ticket            TicketDetailResponse `json:"ticket"`
	DuplicateWarnings []string             `json:"duplicate_warnings,omitempty"`
}

// StaffWorkloadResponse reports one worker's live load.
type StaffWorkloadResponse struct {
	StaffCode         string `json:"staff_code"`
	StaffName         string `json:"staff_name"`
	DepartmentCode    string `json:"department_code"`
	ActiveTicketCount int    `json:"active_ticket_count"`
}

// SweepResponse reports the outcome of a manual sweep trigger.
type SweepResponse struct {
	Processed int `json:"processed"`
	Expired   int `json:"expired"`
	Skipped   int `json:"skipped"`
}
