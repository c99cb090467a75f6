package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/agricoop/magasin-service/internal/domain"
)

// MagasinRepository manages store persistence.
type MagasinRepository interface {
	Create(ctx context.Context, magasin *domain.Magasin) error
	Update(ctx context.Context, magasin *domain.Magasin) error
	GetByID(ctx context.Context, id int64) (*domain.Magasin, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Magasin, error)
}

type magasinRepository struct {
	db DB
}

// NewMagasinRepository builds the repository.
func NewMagasinRepository(db DB) MagasinRepository {
	return &magasinRepository{db: db}
}

func (r *magasinRepository) Create(ctx context.Context, magasin *domain.Magasin) error {
	const query = `
        INSERT INTO magasins (code, name, region, capacity, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		magasin.Code,
		magasin.Name,
		magasin.Region,
		magasin.Capacity,
		magasin.Active,
	).Scan(&magasin.ID, &magasin.CreatedAt, &magasin.UpdatedAt)
}

func (r *magasinRepository) Update(ctx context.Context, magasin *domain.Magasin) error {
	const query = `
        UPDATE magasins SET name=$1, region=$2, capacity=$3, active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		magasin.Name,
		magasin.Region,
		magasin.Capacity,
		magasin.Active,
		magasin.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *magasinRepository) GetByID(ctx context.Context, id int64) (*domain.Magasin, error) {
	const query = `
        SELECT id, code, name, region, capacity, active, created_at, updated_at
        FROM magasins WHERE id=$1`
	var m domain.Magasin
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Code,
		&m.Name,
		&m.Region,
		&m.Capacity,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *magasinRepository) List(ctx context.Context, activeOnly bool) ([]domain.Magasin, error) {
	const query = `
        SELECT id, code, name, region, capacity, active, created_at, updated_at
        FROM magasins WHERE active OR NOT $1 ORDER BY name`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Magasin
	for rows.Next() {
		var m domain.Magasin
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Region, &m.Capacity, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
