package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps carts in process memory. Line order is insertion order.
type MemStore struct {
	mu    sync.RWMutex
	carts map[string][]LineItem
}

func NewMemStore() *MemStore {
	return &MemStore{carts: make(map[string][]LineItem)}
}

func (s *MemStore) Get(ctx context.Context, userID string) (Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.carts[userID]
	out := make([]LineItem, len(items))
	copy(out, items)
	return Cart{UserID: userID, Items: out, TotalCents: Total(out)}, nil
}

func (s *MemStore) Upsert(ctx context.Context, userID, productID string, qtyDelta, unitPriceCents int) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	merged := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Qty = maxInt(1, items[i].Qty+qtyDelta)
			items[i].PriceCents = unitPriceCents
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, LineItem{
			ID:         uuid.NewString(),
			ProductID:  productID,
			Qty:        maxInt(1, qtyDelta),
			PriceCents: unitPriceCents,
			AddedAt:    time.Now().UTC(),
		})
	}
	s.carts[userID] = items
	return s.snapshotLocked(userID), nil
}

func (s *MemStore) SetQuantity(ctx context.Context, userID, itemID string, qty, unitPriceCents int) (Cart, error) {
	if qty < 1 {
		return Cart{}, ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Qty = qty
			items[i].PriceCents = unitPriceCents
			return s.snapshotLocked(userID), nil
		}
	}
	return Cart{}, ErrItemNotFound
}

func (s *MemStore) Remove(ctx context.Context, userID, itemID string) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			s.carts[userID] = append(items[:i:i], items[i+1:]...)
			break
		}
	}
	return s.snapshotLocked(userID), nil
}

func (s *MemStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

func (s *MemStore) snapshotLocked(userID string) Cart {
	items := s.carts[userID]
	out := make([]LineItem, len(items))
	copy(out, items)
	return Cart{UserID: userID, Items: out, TotalCents: Total(out), UpdatedAt: time.Now().UTC()}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
