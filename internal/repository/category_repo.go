package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// ListActive returns active categories in display order.
func (r *CategoryRepo) ListActive(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slug, name, emoji, display_order, is_active
		FROM categories
		WHERE is_active = true
		ORDER BY display_order, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Emoji, &c.DisplayOrder, &c.IsActive); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
