package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/repository"
)

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates a Postgres-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
	SELECT id, name, created_at
	FROM categories
	WHERE id = $1
	`
	return scanCategory(r.pool.QueryRow(ctx, query, id))
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
	SELECT id, name, created_at
	FROM categories
	ORDER BY name, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) Upsert(ctx context.Context, category *domain.Category) error {
	if category == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO categories (id, name, created_at)
	VALUES ($1, $2, COALESCE($3, NOW()))
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name
	RETURNING created_at;
	`

	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		category.ID,
		category.Name,
		nullTime(category.CreatedAt),
	).Scan(&createdAt); err != nil {
		return err
	}

	category.CreatedAt = createdAt
	return nil
}

func scanCategory(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Category, error) {
	var category domain.Category
	if err := row.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}
