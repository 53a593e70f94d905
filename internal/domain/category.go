package domain

import "time"

// DefaultSLAResolveHours applies when a category has no explicit SLA.
const DefaultSLAResolveHours = 24

// Category maps a ticket to a department and a resolution SLA. Edits to
// SLAResolveHours never recompute deadlines of already-created tickets.
type Category struct {
	ID              string
	Code            string
	Name            string
	DepartmentID    string
	SLAResolveHours int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResolveHours returns the category SLA, falling back to the default.
func (c *Category) ResolveHours() int {
	if c.SLAResolveHours <= 0 {
		return DefaultSLAResolveHours
	}
	return c.SLAResolveHours
}
