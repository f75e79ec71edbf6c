package redisx

import "time"

const (
	// Checkout idempotency: idem:checkout:{user_id}:{cart_hash} -> order_id
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
