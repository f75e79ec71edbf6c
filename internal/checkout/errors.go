package checkout

import "errors"

var (
	ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

	// ErrCartStale means at least one line no longer resolves to an
	// in-stock product. Whole-cart rejection: partial fulfillment would
	// silently change what the user agreed to pay. A re-fetch of the cart
	// drops the orphans, after which checkout can be retried.
	ErrCartStale = errors.New("cart contains unavailable products")
)
