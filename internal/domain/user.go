package domain

import "time"

// Role enumerates caller roles across the helpdesk.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleStaff     Role = "STAFF"
	RoleAdmin     Role = "ADMIN"
)

// UserStatus represents account lifecycle states.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User models requesters, staff workers and administrators. Staff belong
// to exactly one department; their active-ticket workload is derived by
// counting assigned tickets, never stored on the record.
type User struct {
	ID           string
	Code         string
	FullName     string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	DepartmentID *string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActiveStaff reports whether the user is an active staff worker.
func (u *User) IsActiveStaff() bool {
	return u.Role == RoleStaff && u.Status == UserStatusActive
}
