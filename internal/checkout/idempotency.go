package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkristof/go-storefront/internal/redisx"
)

// IdemStore remembers order ids per (user, cart hash) for a bounded retry
// window. Best effort: a miss means a duplicate order is possible only if
// the store lost the entry, and the window is advisory by design.
type IdemStore interface {
	Get(ctx context.Context, userID, hash string) (orderID string, ok bool)
	Put(ctx context.Context, userID, hash, orderID string)
}

// RedisIdem backs the window with Redis TTL keys.
type RedisIdem struct {
	Client *redis.Client
	Window time.Duration
}

func (r *RedisIdem) Get(ctx context.Context, userID, hash string) (string, bool) {
	key := fmt.Sprintf(redisx.KeyIdemCheckout, userID, hash)
	v, err := r.Client.Get(ctx, key).Result()
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (r *RedisIdem) Put(ctx context.Context, userID, hash, orderID string) {
	key := fmt.Sprintf(redisx.KeyIdemCheckout, userID, hash)
	_ = r.Client.Set(ctx, key, orderID, r.Window).Err()
}

// MemIdem is the in-process equivalent for tests and single-node runs.
type MemIdem struct {
	Window time.Duration

	mu      sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	orderID string
	expires time.Time
}

func NewMemIdem(window time.Duration) *MemIdem {
	return &MemIdem{Window: window, entries: make(map[string]memEntry)}
}

func (m *MemIdem) Get(ctx context.Context, userID, hash string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[userID+":"+hash]
	if !ok || time.Now().After(e.expires) {
		delete(m.entries, userID+":"+hash)
		return "", false
	}
	return e.orderID, true
}

func (m *MemIdem) Put(ctx context.Context, userID, hash, orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID+":"+hash] = memEntry{orderID: orderID, expires: time.Now().Add(m.Window)}
}
