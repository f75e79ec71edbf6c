package httpx

import (
	"errors"
	"net/http"

	"github.com/mkristof/go-storefront/internal/cart"
	"github.com/mkristof/go-storefront/internal/catalog"
	"github.com/mkristof/go-storefront/internal/checkout"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/payment"
)

// errStatus maps the core error taxonomy onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, checkout.ErrCartStale),
		errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, payment.ErrDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, catalog.ErrUnavailable),
		errors.Is(err, payment.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
