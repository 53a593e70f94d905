package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// UserRepository defines persistence access for requesters, staff and admins.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByCode(ctx context.Context, code string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListActiveStaffByDepartment returns active staff in stable
	// creation order; the assignment selector relies on that ordering
	// for deterministic tie-breaks.
	ListActiveStaffByDepartment(ctx context.Context, deptCode string) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, code, full_name, email, password_hash, phone, role, department_id, status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (code, full_name, email, password_hash, phone, role, department_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.Code,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.DepartmentID,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET full_name=$1, email=$2, password_hash=$3, phone=$4, role=$5,
            department_id=$6, status=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.DepartmentID,
		user.Status,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByCode(ctx context.Context, code string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE code=$1`, code)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) ListActiveStaffByDepartment(ctx context.Context, deptCode string) ([]domain.User, error) {
	const query = `
        SELECT u.id, u.code, u.full_name, u.email, u.password_hash, u.phone, u.role,
               u.department_id, u.status, u.created_at, u.updated_at
        FROM users u
        JOIN departments d ON d.id = u.department_id
        WHERE d.code=$1 AND u.role='STAFF' AND u.status='ACTIVE'
        ORDER BY u.created_at`
	rows, err := r.pool.Query(ctx, query, deptCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows.Scan, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg).Scan, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(scan func(...any) error, user *domain.User) error {
	return scan(
		&user.ID,
		&user.Code,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.DepartmentID,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
