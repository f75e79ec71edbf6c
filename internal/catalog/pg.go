package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGCatalog struct{ DB *pgxpool.Pool }

func (c *PGCatalog) GetProduct(ctx context.Context, id string) (Product, bool, error) {
	var p Product
	err := c.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, description, image, rating, reviews, in_stock, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Description, &p.Image, &p.Rating, &p.Reviews, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return Product{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return Product{}, false, err
	}
	return p, true, nil
}

func (c *PGCatalog) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := c.DB.Query(ctx, `
		SELECT id, name, price_cents, description, image, rating, reviews, in_stock, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Description, &p.Image, &p.Rating, &p.Reviews, &p.InStock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
