package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-helpdesk/internal/domain"
)

// LocationRepository defines persistence access for campus locations.
type LocationRepository interface {
	Create(ctx context.Context, location *domain.Location) error
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	GetByCode(ctx context.Context, code string) (*domain.Location, error)
	List(ctx context.Context) ([]domain.Location, error)
}

type locationRepository struct {
	pool *pgxpool.Pool
}

// NewLocationRepository instantiates repository.
func NewLocationRepository(pool *pgxpool.Pool) LocationRepository {
	return &locationRepository{pool: pool}
}

const locationColumns = `id, code, name, building, room, created_at, updated_at`

func (r *locationRepository) Create(ctx context.Context, location *domain.Location) error {
	const query = `
        INSERT INTO locations (code, name, building, room)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		location.Code,
		location.Name,
		location.Building,
		location.Room,
	).Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt)
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	return r.fetchSingle(ctx, `SELECT `+locationColumns+` FROM locations WHERE id=$1`, id)
}

func (r *locationRepository) GetByCode(ctx context.Context, code string) (*domain.Location, error) {
	return r.fetchSingle(ctx, `SELECT `+locationColumns+` FROM locations WHERE code=$1`, code)
}

func (r *locationRepository) List(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Location
	for rows.Next() {
		var location domain.Location
		if err := rows.Scan(
			&location.ID,
			&location.Code,
			&location.Name,
			&location.Building,
			&location.Room,
			&location.CreatedAt,
			&location.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, location)
	}
	return result, rows.Err()
}

func (r *locationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Location, error) {
	var location domain.Location
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&location.ID,
		&location.Code,
		&location.Name,
		&location.Building,
		&location.Room,
		&location.CreatedAt,
		&location.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &location, nil
}
