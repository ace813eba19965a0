package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// Repository defines persistence operations for items.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, name string, price float64) (*Item, error)
	Update(ctx context.Context, id int64, name string, price float64) (*Item, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all items ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, created_at, updated_at FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("items: list: %w", err)
	}
	defer rows.Close()

	var result []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("items: scan: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("items: list: %w", err)
	}
	return result, nil
}

// Get fetches one item by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Item, error) {
	item := &Item{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, created_at, updated_at FROM items WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("items: get: %w", err)
	}
	return item, nil
}

// Create inserts a new item.
func (r *PGRepository) Create(ctx context.Context, name string, price float64) (*Item, error) {
	item := &Item{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (name, price) VALUES ($1, $2)
		 RETURNING id, name, price, created_at, updated_at`,
		name, price,
	).Scan(&item.ID, &item.Name, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("items: create: %w", err)
	}
	return item, nil
}

// Update rewrites name and price of an existing item.
func (r *PGRepository) Update(ctx context.Context, id int64, name string, price float64) (*Item, error) {
	item := &Item{}
	err := r.pool.QueryRow(ctx,
		`UPDATE items SET name = $2, price = $3, updated_at = now()
		  WHERE id = $1
		 RETURNING id, name, price, created_at, updated_at`,
		id, name, price,
	).Scan(&item.ID, &item.Name, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("items: update: %w", err)
	}
	return item, nil
}

var _ Repository = (*PGRepository)(nil)
