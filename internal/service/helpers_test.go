package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/events"
	"github.com/spec-kit/campus-helpdesk/internal/repository"
)

// memTicketRepo is an in-memory TicketRepository with the same version
// semantics as the SQL implementation.
type memTicketRepo struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	order     []string
	workloads map[string][]repository.StaffWorkload
	stale     map[string]bool
	nextID    int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{
		tickets:   make(map[string]*domain.Ticket),
		workloads: make(map[string][]repository.StaffWorkload),
		stale:     make(map[string]bool),
	}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("tid-%d", r.nextID)
	}
	ticket.Version = 1
	stored := *ticket
	r.tickets[ticket.Code] = &stored
	r.order = append(r.order, ticket.Code)
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tickets[ticket.Code]
	if !ok {
		return repository.ErrStaleTicket
	}
	if r.stale[ticket.Code] || existing.Version != ticket.Version {
		return repository.ErrStaleTicket
	}
	ticket.Version++
	stored := *ticket
	r.tickets[ticket.Code] = &stored
	return nil
}

func (r *memTicketRepo) GetByCode(_ context.Context, code string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tickets[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *existing
	return &copied, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, code := range r.order {
		ticket := r.tickets[code]
		if filter.Code != nil && ticket.Code != *filter.Code {
			continue
		}
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(ticket.Status, filter.Statuses) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *memTicketRepo) ListOpenPastDeadline(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, code := range r.order {
		ticket := r.tickets[code]
		if ticket.Status.IsActive() && ticket.ResolveDeadline.Before(now) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *memTicketRepo) ListActiveSimilar(_ context.Context, requesterID, categoryID, locationID string, since time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, code := range r.order {
		ticket := r.tickets[code]
		if ticket.RequesterID != requesterID || ticket.CategoryID != categoryID || ticket.LocationID != locationID {
			continue
		}
		if !ticket.Status.IsActive() || ticket.CreatedAt.Before(since) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *memTicketRepo) CountActiveByAssignee(_ context.Context, staffID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.AssignedTo != nil && *ticket.AssignedTo == staffID &&
			(ticket.Status == domain.TicketStatusAssigned || ticket.Status == domain.TicketStatusInProgress) {
			count++
		}
	}
	return count, nil
}

func (r *memTicketRepo) StaffWorkloadByDepartment(_ context.Context, deptCode string) ([]repository.StaffWorkload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repository.StaffWorkload{}, r.workloads[deptCode]...), nil
}

func statusIn(status domain.TicketStatus, set []domain.TicketStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) add(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := user
	r.users[user.ID] = &stored
	return &stored
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("uid-%d", len(r.users)+1)
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByCode(_ context.Context, code string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Code == code {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListActiveStaffByDepartment(_ context.Context, _ string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.IsActiveStaff() {
			result = append(result, *user)
		}
	}
	return result, nil
}

type memCategoryRepo struct {
	categories map[string]*domain.Category
}

func newMemCategoryRepo(categories ...domain.Category) *memCategoryRepo {
	repo := &memCategoryRepo{categories: make(map[string]*domain.Category)}
	for i := range categories {
		stored := categories[i]
		repo.categories[stored.Code] = &stored
	}
	return repo
}

func (r *memCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	stored := *category
	r.categories[category.Code] = &stored
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	for _, category := range r.categories {
		if category.ID == id {
			copied := *category
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCategoryRepo) GetByCode(_ context.Context, code string) (*domain.Category, error) {
	category, ok := r.categories[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *memCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.categories {
		result = append(result, *category)
	}
	return result, nil
}

type memLocationRepo struct {
	locations map[string]*domain.Location
}

func newMemLocationRepo(locations ...domain.Location) *memLocationRepo {
	repo := &memLocationRepo{locations: make(map[string]*domain.Location)}
	for i := range locations {
		stored := locations[i]
		repo.locations[stored.Code] = &stored
	}
	return repo
}

func (r *memLocationRepo) Create(_ context.Context, location *domain.Location) error {
	stored := *location
	r.locations[location.Code] = &stored
	return nil
}

func (r *memLocationRepo) GetByID(_ context.Context, id string) (*domain.Location, error) {
	for _, location := range r.locations {
		if location.ID == id {
			copied := *location
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memLocationRepo) GetByCode(_ context.Context, code string) (*domain.Location, error) {
	location, ok := r.locations[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *location
	return &copied, nil
}

func (r *memLocationRepo) List(_ context.Context) ([]domain.Location, error) {
	var result []domain.Location
	for _, location := range r.locations {
		result = append(result, *location)
	}
	return result, nil
}

type memDepartmentRepo struct {
	departments map[string]*domain.Department
}

func newMemDepartmentRepo(departments ...domain.Department) *memDepartmentRepo {
	repo := &memDepartmentRepo{departments: make(map[string]*domain.Department)}
	for i := range departments {
		stored := departments[i]
		repo.departments[stored.Code] = &stored
	}
	return repo
}

func (r *memDepartmentRepo) Create(_ context.Context, department *domain.Department) error {
	stored := *department
	r.departments[department.Code] = &stored
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	for _, department := range r.departments {
		if department.ID == id {
			copied := *department
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memDepartmentRepo) GetByCode(_ context.Context, code string) (*domain.Department, error) {
	department, ok := r.departments[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *department
	return &copied, nil
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, department := range r.departments {
		result = append(result, *department)
	}
	return result, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func strPtr(s string) *string { return &s }
