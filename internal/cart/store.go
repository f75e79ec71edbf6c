package cart

import "context"

// Store persists per-user carts. Every mutation leaves TotalCents equal to
// the sum over its lines, or changes nothing at all.
type Store interface {
	// Get returns an empty cart when none exists for the user.
	Get(ctx context.Context, userID string) (Cart, error)

	// Upsert merges qtyDelta into the line for productID, flooring the
	// resulting quantity at 1, and refreshes the line's price snapshot to
	// unitPriceCents. A missing line is created with max(1, qtyDelta).
	Upsert(ctx context.Context, userID, productID string, qtyDelta, unitPriceCents int) (Cart, error)

	// SetQuantity sets an absolute quantity on an existing line and
	// refreshes its price snapshot. Fails with ErrInvalidQuantity for
	// qty < 1 and ErrItemNotFound for an unknown itemID.
	SetQuantity(ctx context.Context, userID, itemID string, qty, unitPriceCents int) (Cart, error)

	// Remove deletes a line by itemID. Removing an absent line succeeds
	// silently so optimistic client retries stay cheap.
	Remove(ctx context.Context, userID, itemID string) (Cart, error)

	// Clear drops every line. Used by checkout after the order is durable.
	Clear(ctx context.Context, userID string) error
}
