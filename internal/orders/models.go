package orders

import "time"

// OrderItem is a denormalized snapshot: name, image and price are copied at
// checkout so later catalog edits or deletions cannot alter history.
type OrderItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type ShippingDetails struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// Order is immutable after creation except for Status, which only moves
// through the transition table in status.go. PaymentRef carries a masked
// token (last four digits style), never full payment credentials.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Items      []OrderItem     `json:"items"`
	TotalCents int             `json:"total_cents"`
	Shipping   ShippingDetails `json:"shipping"`
	PaymentRef string          `json:"payment_ref"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
