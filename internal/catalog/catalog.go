package catalog

import (
	"context"
	"errors"
	"time"
)

// Product is read-only to the cart/order core; only the catalog writes it.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PriceCents  int       `json:"price_cents"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	Reviews     int       `json:"reviews,omitempty"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// ErrUnavailable reports that the catalog could not be reached in time.
var ErrUnavailable = errors.New("catalog unavailable")

type Catalog interface {
	// GetProduct returns found=false for an unknown id; err is reserved
	// for infrastructure failures (timeouts, connectivity).
	GetProduct(ctx context.Context, id string) (Product, bool, error)
	ListProducts(ctx context.Context) ([]Product, error)
}
