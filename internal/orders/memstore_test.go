package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreGetScopedToUser(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, Order{ID: "o1", UserID: "u1", Status: StatusProcessing}))

	_, err := s.Get(ctx, "u2", "o1")
	assert.ErrorIs(t, err, ErrNotFound) // another user cannot read it

	o, err := s.Get(ctx, "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
}

func TestMemStoreListNewestFirst(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.Create(ctx, Order{ID: "o1", UserID: "u1", CreatedAt: base.Add(-2 * time.Hour)}))
	require.NoError(t, s.Create(ctx, Order{ID: "o2", UserID: "u1", CreatedAt: base}))
	require.NoError(t, s.Create(ctx, Order{ID: "o3", UserID: "u1", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, s.Create(ctx, Order{ID: "x", UserID: "u2", CreatedAt: base}))

	out, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "o2", out[0].ID)
	assert.Equal(t, "o3", out[1].ID)
	assert.Equal(t, "o1", out[2].ID)
}

func TestMemStoreSetStatus(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, Order{ID: "o1", UserID: "u1", Status: StatusProcessing}))

	require.NoError(t, s.SetStatus(ctx, "o1", StatusShipped))
	st, err := s.GetStatus(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	assert.ErrorIs(t, s.SetStatus(ctx, "o1", StatusProcessing), ErrInvalidTransition)
	assert.ErrorIs(t, s.SetStatus(ctx, "missing", StatusShipped), ErrNotFound)

	require.NoError(t, s.SetStatus(ctx, "o1", StatusDelivered))
	assert.ErrorIs(t, s.SetStatus(ctx, "o1", StatusCancelled), ErrInvalidTransition)
}
