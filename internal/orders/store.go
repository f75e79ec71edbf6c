package orders

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("order not found")

// Store is append-only: orders are created once and never rewritten; the
// only permitted mutation is a status move through the transition table.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, userID, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetStatus(ctx context.Context, orderID string) (Status, error)
	// SetStatus fails with ErrInvalidTransition when the move is not in
	// the transition table, and ErrNotFound for an unknown order.
	SetStatus(ctx context.Context, orderID string, next Status) error
}
