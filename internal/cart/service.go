package cart

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkristof/go-storefront/internal/catalog"
)

// ItemView is a cart line joined with live catalog display data. PriceCents
// stays the stored snapshot; only name/image come from the catalog.
type ItemView struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type View struct {
	UserID     string     `json:"user_id"`
	Items      []ItemView `json:"items"`
	TotalCents int        `json:"total_cents"`
}

// Service validates catalog references before they reach the store and
// serializes mutations per user.
type Service struct {
	Store          Store
	Catalog        catalog.Catalog
	Locks          *UserLocks
	CatalogTimeout time.Duration

	sfg singleflight.Group
}

func NewService(store Store, cat catalog.Catalog, locks *UserLocks, catalogTimeout time.Duration) *Service {
	if catalogTimeout <= 0 {
		catalogTimeout = 3 * time.Second
	}
	return &Service{Store: store, Catalog: cat, Locks: locks, CatalogTimeout: catalogTimeout}
}

// AddItem resolves the product server-side; client-supplied prices are
// never trusted. Adding the same product again merges into one line.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}
	release := s.Locks.Acquire(userID)
	defer release()

	p, err := s.lookup(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	if !p.InStock {
		return Cart{}, fmt.Errorf("%w: %s", ErrOutOfStock, productID)
	}
	return s.Store.Upsert(ctx, userID, productID, qty, p.PriceCents)
}

// ListItems joins lines with live catalog data for display. Orphan lines,
// whose product no longer resolves or is out of stock, are dropped from the
// view and its total; the stored cart is left alone. A checkout rejected
// for stale lines converges here: the re-fetched view has them dropped.
func (s *Service) ListItems(ctx context.Context, userID string) (View, error) {
	v, err, _ := s.sfg.Do(userID, func() (any, error) {
		c, err := s.Store.Get(ctx, userID)
		if err != nil {
			return View{}, err
		}
		view := View{UserID: userID, Items: make([]ItemView, 0, len(c.Items))}
		for _, it := range c.Items {
			p, found, err := s.lookupProduct(ctx, it.ProductID)
			if err != nil {
				return View{}, err
			}
			if !found || !p.InStock {
				continue // orphan line, excluded from view and total
			}
			view.Items = append(view.Items, ItemView{
				ID:         it.ID,
				ProductID:  it.ProductID,
				Name:       p.Name,
				Image:      p.Image,
				Qty:        it.Qty,
				PriceCents: it.PriceCents,
			})
			view.TotalCents += it.Qty * it.PriceCents
		}
		return view, nil
	})
	if err != nil {
		return View{}, err
	}
	return v.(View), nil
}

// UpdateQuantity refreshes the line's price snapshot from the catalog's
// current price; quantity updates are the one place a snapshot may drift.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}
	release := s.Locks.Acquire(userID)
	defer release()

	c, err := s.Store.Get(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	var productID string
	for _, it := range c.Items {
		if it.ID == itemID {
			productID = it.ProductID
			break
		}
	}
	if productID == "" {
		return Cart{}, ErrItemNotFound
	}

	p, err := s.lookup(ctx, productID)
	if err != nil {
		return Cart{}, err
	}
	return s.Store.SetQuantity(ctx, userID, itemID, qty, p.PriceCents)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (Cart, error) {
	release := s.Locks.Acquire(userID)
	defer release()
	return s.Store.Remove(ctx, userID, itemID)
}

// lookup resolves a product or fails with ErrProductNotFound.
func (s *Service) lookup(ctx context.Context, productID string) (catalog.Product, error) {
	p, found, err := s.lookupProduct(ctx, productID)
	if err != nil {
		return catalog.Product{}, err
	}
	if !found {
		return catalog.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return p, nil
}

func (s *Service) lookupProduct(ctx context.Context, productID string) (catalog.Product, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.CatalogTimeout)
	defer cancel()
	p, found, err := s.Catalog.GetProduct(cctx, productID)
	if err != nil {
		if cctx.Err() != nil {
			return catalog.Product{}, false, fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
		}
		return catalog.Product{}, false, err
	}
	return p, found, nil
}
