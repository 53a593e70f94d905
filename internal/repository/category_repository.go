package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// CategoryRepository defines persistence access for ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByCode(ctx context.Context, code string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, code, name, department_id, sla_resolve_hours, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (code, name, department_id, sla_resolve_hours)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Code,
		category.Name,
		category.DepartmentID,
		category.SLAResolveHours,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE code=$1`, code)
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Code,
			&category.Name,
			&category.DepartmentID,
			&category.SLAResolveHours,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Code,
		&category.Name,
		&category.DepartmentID,
		&category.SLAResolveHours,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}
