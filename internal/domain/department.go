package domain

import "time"

// Department represents a facilities unit that resolves tickets.
type Department struct {
	ID        string
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
