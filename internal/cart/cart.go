package cart

import "time"

// LineItem is one product entry in a user's cart. PriceCents is the price
// captured at the last write touching this line (add or quantity update);
// display totals use it, checkout re-resolves the live catalog price.
type LineItem struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Qty        int       `json:"qty"`
	PriceCents int       `json:"price_cents"`
	AddedAt    time.Time `json:"added_at"`
}

// Cart holds at most one line per product. TotalCents is derived and is
// recomputed from scratch after every write, never accumulated.
type Cart struct {
	UserID     string     `json:"user_id"`
	Items      []LineItem `json:"items"`
	TotalCents int        `json:"total_cents"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Total recomputes the invariant sum over all lines.
func Total(items []LineItem) int {
	total := 0
	for _, it := range items {
		total += it.Qty * it.PriceCents
	}
	return total
}
