package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// ErrStaleTicket signals that a conditional write lost a concurrent race:
// the row exists but its version moved since the caller's read.
var ErrStaleTicket = errors.New("ticket modified concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Code        *string
	RequesterID *string
	AssignedTo  *string
	Statuses    []domain.TicketStatus
	Limit       int
	Offset      int
}

// StaffWorkload pairs a staff worker with their live active-ticket count.
// The count is always computed from the tickets table, never stored.
type StaffWorkload struct {
	StaffID           string
	StaffCode         string
	StaffName         string
	DepartmentCode    string
	ActiveTicketCount int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket only if its version still matches; a lost
	// race returns ErrStaleTicket.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByCode(ctx context.Context, code string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ListOpenPastDeadline returns tickets in an active status whose
	// resolve deadline has passed.
	ListOpenPastDeadline(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	// ListActiveSimilar narrows to the duplicate-candidate set: same
	// requester, category and location, active status, created since the
	// given instant. Title matching is the detector's concern.
	ListActiveSimilar(ctx context.Context, requesterID, categoryID, locationID string, since time.Time) ([]domain.Ticket, error)
	CountActiveByAssignee(ctx context.Context, staffID string) (int, error)
	// StaffWorkloadByDepartment lists active staff of the department with
	// their live workload, in stable creation order.
	StaffWorkloadByDepartment(ctx context.Context, deptCode string) ([]StaffWorkload, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, code, title, description, note, status, requester_id, assigned_to, managed_by,
               category_id, location_id, contact_phone, created_at, resolve_deadline,
               resolved_at, closed_at, rating_stars, rating_comment, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, title, description, note, status, requester_id, assigned_to, managed_by,
                             category_id, location_id, contact_phone, created_at, resolve_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, version`
	return r.pool.QueryRow(ctx, query,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.Note,
		ticket.Status,
		ticket.RequesterID,
		ticket.AssignedTo,
		ticket.ManagedBy,
		ticket.CategoryID,
		ticket.LocationID,
		ticket.ContactPhone,
		ticket.CreatedAt,
		ticket.ResolveDeadline,
	).Scan(&ticket.ID, &ticket.Version)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, note=$3, status=$4, assigned_to=$5, managed_by=$6,
            contact_phone=$7, resolved_at=$8, closed_at=$9, rating_stars=$10, rating_comment=$11,
            version=version+1
        WHERE code=$12 AND version=$13`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Note,
		ticket.Status,
		ticket.AssignedTo,
		ticket.ManagedBy,
		ticket.ContactPhone,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.RatingStars,
		ticket.RatingComment,
		ticket.Code,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleTicket
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE code=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, code).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Code != nil {
		args = append(args, *filter.Code)
		clauses = append(clauses, fmt.Sprintf("code=$%d", len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListOpenPastDeadline(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status IN ('NEW','ASSIGNED','IN_PROGRESS') AND resolve_deadline < $1
        ORDER BY resolve_deadline`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListActiveSimilar(ctx context.Context, requesterID, categoryID, locationID string, since time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE requester_id=$1 AND category_id=$2 AND location_id=$3
          AND status IN ('NEW','ASSIGNED','IN_PROGRESS') AND created_at >= $4
        ORDER BY created_at`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, requesterID, categoryID, locationID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountActiveByAssignee(ctx context.Context, staffID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE assigned_to=$1 AND status IN ('ASSIGNED','IN_PROGRESS')`
	var count int
	if err := r.pool.QueryRow(ctx, query, staffID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) StaffWorkloadByDepartment(ctx context.Context, deptCode string) ([]StaffWorkload, error) {
	const query = `
        SELECT u.id, u.code, u.full_name, d.code,
               (SELECT COUNT(*) FROM tickets t
                WHERE t.assigned_to = u.id AND t.status IN ('ASSIGNED','IN_PROGRESS'))
        FROM users u
        JOIN departments d ON d.id = u.department_id
        WHERE d.code=$1 AND u.role='STAFF' AND u.status='ACTIVE'
        ORDER BY u.created_at`
	rows, err := r.pool.Query(ctx, query, deptCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffWorkload
	for rows.Next() {
		var w StaffWorkload
		if err := rows.Scan(&w.StaffID, &w.StaffCode, &w.StaffName, &w.DepartmentCode, &w.ActiveTicketCount); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func ticketFields(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.Note,
		&ticket.Status,
		&ticket.RequesterID,
		&ticket.AssignedTo,
		&ticket.ManagedBy,
		&ticket.CategoryID,
		&ticket.LocationID,
		&ticket.ContactPhone,
		&ticket.CreatedAt,
		&ticket.ResolveDeadline,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.RatingStars,
		&ticket.RatingComment,
		&ticket.Version,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
