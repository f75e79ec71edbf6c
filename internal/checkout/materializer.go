package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mkristof/go-storefront/internal/cart"
	"github.com/mkristof/go-storefront/internal/catalog"
	kafkax "github.com/mkristof/go-storefront/internal/kafka"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/payment"
)

type Request struct {
	Shipping orders.ShippingDetails
	Payment  payment.Details
}

// Materializer converts a cart into an immutable order: snapshot,
// re-validate against the live catalog, authorize payment, write the order,
// clear the cart. The whole sequence runs under the user's lock so no cart
// mutation can interleave with it.
type Materializer struct {
	Carts   cart.Store
	Catalog catalog.Catalog
	Orders  orders.Store
	Gateway payment.Gateway
	Locks   *cart.UserLocks
	Idem    IdemStore

	// optional; nil disables event publishing
	Producer *kafkax.Producer
	Service  string

	CatalogTimeout time.Duration
	PaymentTimeout time.Duration
}

func (m *Materializer) Checkout(ctx context.Context, userID string, req Request) (orders.Order, error) {
	release := m.Locks.Acquire(userID)
	defer release()

	snap, err := m.Carts.Get(ctx, userID)
	if err != nil {
		return orders.Order{}, err
	}
	if snap.Empty() {
		return orders.Order{}, ErrEmptyCart
	}

	// duplicate submission inside the window returns the original order
	hash := stateHash(snap)
	if m.Idem != nil {
		if orderID, ok := m.Idem.Get(ctx, userID, hash); ok {
			if o, err := m.Orders.Get(ctx, userID, orderID); err == nil {
				// the resubmitted content is already materialized; this is
				// also the corrective clear for a previously failed step 7
				if err := m.Carts.Clear(context.WithoutCancel(ctx), userID); err != nil {
					log.Printf("checkout: corrective clear user=%s order=%s: %v", userID, orderID, err)
				}
				return o, nil
			}
		}
	}

	// Re-validate every line; checkout charges the live catalog price, not
	// the snapshot, so a price change between add and checkout is honored
	// in either direction.
	items := make([]orders.OrderItem, 0, len(snap.Items))
	total := 0
	for _, it := range snap.Items {
		p, found, err := m.lookupProduct(ctx, it.ProductID)
		if err != nil {
			return orders.Order{}, err
		}
		if !found || !p.InStock {
			return orders.Order{}, fmt.Errorf("%w: %s", ErrCartStale, it.ProductID)
		}
		items = append(items, orders.OrderItem{
			ProductID:  it.ProductID,
			Name:       p.Name,
			Image:      p.Image,
			Qty:        it.Qty,
			PriceCents: p.PriceCents,
		})
		total += it.Qty * p.PriceCents
	}

	ref, err := m.authorize(ctx, total, req.Payment)
	if err != nil {
		// no durable write happened; the cart is untouched
		return orders.Order{}, err
	}

	o := orders.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Items:      items,
		TotalCents: total,
		Shipping:   req.Shipping,
		PaymentRef: ref,
		Status:     orders.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.Orders.Create(ctx, o); err != nil {
		return orders.Order{}, err
	}

	if m.Idem != nil {
		m.Idem.Put(ctx, userID, hash, o.ID)
	}
	m.publishCreated(o)

	// The order is the financial record of truth. A failed clear leaves
	// stale cart content for a later corrective clear; it never unwinds
	// the order.
	if err := m.Carts.Clear(context.WithoutCancel(ctx), userID); err != nil {
		log.Printf("checkout: clear cart user=%s order=%s: %v", userID, o.ID, err)
	}
	return o, nil
}

func (m *Materializer) lookupProduct(ctx context.Context, productID string) (catalog.Product, bool, error) {
	timeout := m.CatalogTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p, found, err := m.Catalog.GetProduct(cctx, productID)
	if err != nil {
		if cctx.Err() != nil {
			return catalog.Product{}, false, fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
		}
		return catalog.Product{}, false, err
	}
	return p, found, nil
}

func (m *Materializer) authorize(ctx context.Context, amountCents int, d payment.Details) (string, error) {
	timeout := m.PaymentTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ref, err := m.Gateway.Authorize(pctx, amountCents, d)
	if err != nil {
		if pctx.Err() != nil && !errors.Is(err, payment.ErrDeclined) {
			return "", fmt.Errorf("%w: %v", payment.ErrUnavailable, err)
		}
		return "", err
	}
	return ref, nil
}

func (m *Materializer) publishCreated(o orders.Order) {
	if m.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      m.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    o.ID,
			UserID:     o.UserID,
			Items:      o.Items,
			TotalCents: o.TotalCents,
		}),
	}
	m.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
