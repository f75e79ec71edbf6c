package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemCatalog is an in-memory catalog for tests and local seeding.
type MemCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemCatalog(products ...Product) *MemCatalog {
	m := &MemCatalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MemCatalog) Put(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MemCatalog) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *MemCatalog) GetProduct(ctx context.Context, id string) (Product, bool, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, false, ErrUnavailable
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	return p, ok, nil
}

func (m *MemCatalog) ListProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
