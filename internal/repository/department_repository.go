package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// DepartmentRepository defines persistence access for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByCode(ctx context.Context, code string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository instantiates repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

const departmentColumns = `id, code, name, is_active, created_at, updated_at`

func (r *departmentRepository) Create(ctx context.Context, department *domain.Department) error {
	const query = `
        INSERT INTO departments (code, name, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		department.Code,
		department.Name,
		department.IsActive,
	).Scan(&department.ID, &department.CreatedAt, &department.UpdatedAt)
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id=$1`, id)
}

func (r *departmentRepository) GetByCode(ctx context.Context, code string) (*domain.Department, error) {
	return r.fetchSingle(ctx, `SELECT `+departmentColumns+` FROM departments WHERE code=$1`, code)
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var department domain.Department
		if err := rows.Scan(
			&department.ID,
			&department.Code,
			&department.Name,
			&department.IsActive,
			&department.CreatedAt,
			&department.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, department)
	}
	return result, rows.Err()
}

func (r *departmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Department, error) {
	var department domain.Department
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&department.ID,
		&department.Code,
		&department.Name,
		&department.IsActive,
		&department.CreatedAt,
		&department.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &department, nil
}
