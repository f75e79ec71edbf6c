package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkristof/go-storefront/internal/cart"
	"github.com/mkristof/go-storefront/internal/catalog"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/payment"
)

type fixture struct {
	carts   *cart.MemStore
	cat     *catalog.MemCatalog
	orders  *orders.MemStore
	gateway payment.Gateway
	mat     *Materializer
}

func newFixture(products ...catalog.Product) *fixture {
	f := &fixture{
		carts:   cart.NewMemStore(),
		cat:     catalog.NewMemCatalog(products...),
		orders:  orders.NewMemStore(),
		gateway: payment.StubGateway{},
	}
	f.mat = &Materializer{
		Carts:   f.carts,
		Catalog: f.cat,
		Orders:  f.orders,
		Gateway: f.gateway,
		Locks:   cart.NewUserLocks(),
		Idem:    NewMemIdem(time.Minute),
	}
	return f
}

func validRequest() Request {
	return Request{
		Shipping: orders.ShippingDetails{Name: "A. Shopper", Address: "1 Main St", City: "Springfield", Zip: "12345"},
		Payment:  payment.Details{CardNumber: "4111 1111 1111 1111", Expiry: "12/30", Holder: "A. Shopper"},
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.mat.Checkout(context.Background(), "u1", validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	got, err := f.orders.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got) // no writes happened
}

func TestCheckoutChargesLivePrice(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
		catalog.Product{ID: "b", Name: "Lamp", PriceCents: 5000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 2, 10000)
	require.NoError(t, err)
	_, err = f.carts.Upsert(ctx, "u1", "b", 1, 5000)
	require.NoError(t, err)

	// price of A increased between add and checkout
	f.cat.Put(catalog.Product{ID: "a", Name: "Desk", PriceCents: 12000, InStock: true})

	o, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, 12000*2+5000*1, o.TotalCents)
	assert.Equal(t, orders.StatusProcessing, o.Status)
	assert.Equal(t, "****1111", o.PaymentRef)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Desk", o.Items[0].Name) // denormalized snapshot

	// cart is cleared after materialization
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCheckoutStaleWhenProductDeleted(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)
	f.cat.Delete("a")

	_, err = f.mat.Checkout(ctx, "u1", validRequest())
	assert.ErrorIs(t, err, ErrCartStale)

	// cart untouched: the orphan is dropped by the next read, not by checkout
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)

	got, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckoutStaleWhenProductOutOfStock(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)
	f.cat.Put(catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: false})

	_, err = f.mat.Checkout(ctx, "u1", validRequest())
	assert.ErrorIs(t, err, ErrCartStale)
}

func TestCheckoutDeclinedPaymentPreservesCart(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)

	req := validRequest()
	req.Payment.CardNumber = "4111 1111 1111 0000" // stub declines on 0000

	_, err = f.mat.Checkout(ctx, "u1", req)
	assert.ErrorIs(t, err, payment.ErrDeclined)

	// no order was written and the cart survives for a retry
	got, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestCheckoutIdempotentResubmission(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 2, 10000)
	require.NoError(t, err)
	snap, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)

	first, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)

	// a client retry replays the identical cart content (the clear from
	// the first submission has not propagated to that client)
	for _, it := range snap.Items {
		_, err := f.carts.Upsert(ctx, "u1", it.ProductID, it.Qty, it.PriceCents)
		require.NoError(t, err)
	}

	second, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCheckoutDifferentContentIsNotDeduped(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)
	first, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)

	_, err = f.carts.Upsert(ctx, "u1", "a", 2, 10000)
	require.NoError(t, err)
	second, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

// slowCatalog never answers before the caller's deadline.
type slowCatalog struct{}

func (slowCatalog) GetProduct(ctx context.Context, id string) (catalog.Product, bool, error) {
	<-ctx.Done()
	return catalog.Product{}, false, ctx.Err()
}

func (slowCatalog) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCheckoutCatalogTimeoutMapsToUnavailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)

	f.mat.Catalog = slowCatalog{}
	f.mat.CatalogTimeout = 10 * time.Millisecond

	_, err = f.mat.Checkout(ctx, "u1", validRequest())
	assert.ErrorIs(t, err, catalog.ErrUnavailable)

	// transient failure: no order written, cart stays for a plain retry
	got, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

// slowGateway never authorizes before the caller's deadline.
type slowGateway struct{}

func (slowGateway) Authorize(ctx context.Context, amountCents int, d payment.Details) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCheckoutPaymentTimeoutMapsToUnavailable(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)

	f.mat.Gateway = slowGateway{}
	f.mat.PaymentTimeout = 10 * time.Millisecond

	_, err = f.mat.Checkout(ctx, "u1", validRequest())
	assert.ErrorIs(t, err, payment.ErrUnavailable)

	got, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

// failingClearStore forces the clear step to fail after order creation.
type failingClearStore struct {
	cart.Store
}

func (s *failingClearStore) Clear(ctx context.Context, userID string) error {
	return errors.New("storage hiccup")
}

func TestCheckoutSucceedsWhenClearFails(t *testing.T) {
	f := newFixture(
		catalog.Product{ID: "a", Name: "Desk", PriceCents: 10000, InStock: true},
	)
	ctx := context.Background()

	_, err := f.carts.Upsert(ctx, "u1", "a", 1, 10000)
	require.NoError(t, err)

	f.mat.Carts = &failingClearStore{Store: f.carts}

	// the order is the financial record of truth; a failed clear must not
	// surface as a checkout failure or unwind the order
	o, err := f.mat.Checkout(ctx, "u1", validRequest())
	require.NoError(t, err)

	got, err := f.orders.Get(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusProcessing, got.Status)

	// stale cart content remains for a later corrective clear
	c, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestStateHashIgnoresInsertionOrder(t *testing.T) {
	a := cart.Cart{Items: []cart.LineItem{
		{ID: "i1", ProductID: "a", Qty: 2, PriceCents: 100},
		{ID: "i2", ProductID: "b", Qty: 1, PriceCents: 50},
	}}
	b := cart.Cart{Items: []cart.LineItem{
		{ID: "i9", ProductID: "b", Qty: 1, PriceCents: 50},
		{ID: "i8", ProductID: "a", Qty: 2, PriceCents: 100},
	}}
	assert.Equal(t, stateHash(a), stateHash(b))

	c := cart.Cart{Items: []cart.LineItem{
		{ID: "i1", ProductID: "a", Qty: 3, PriceCents: 100},
		{ID: "i2", ProductID: "b", Qty: 1, PriceCents: 50},
	}}
	assert.NotEqual(t, stateHash(a), stateHash(c))
}

func TestMemIdemWindowExpiry(t *testing.T) {
	idem := NewMemIdem(10 * time.Millisecond)
	ctx := context.Background()

	idem.Put(ctx, "u1", "h1", "order-1")
	got, ok := idem.Get(ctx, "u1", "h1")
	require.True(t, ok)
	assert.Equal(t, "order-1", got)

	time.Sleep(20 * time.Millisecond)
	_, ok = idem.Get(ctx, "u1", "h1")
	assert.False(t, ok)
}
