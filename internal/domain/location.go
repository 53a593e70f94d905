package domain

import "time"

// Location identifies where on campus an issue was reported.
type Location struct {
	ID        string
	Code      string
	Name      string
	Building  string
	Room      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
