package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredFirstHit(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	// Present only in L2.
	require.NoError(t, l2.Set(ctx, "key", "value", time.Minute))

	ok, str, err := As[string](ctx, s, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", str)
}

func TestTieredPromotion(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	require.NoError(t, l2.Set(ctx, "key", "value", time.Minute))

	// A tiered read promotes the value into L1.
	_, _, err := s.Get(ctx, "key")
	require.NoError(t, err)

	found, val, err := l1.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value", val)
}

func TestTieredPromotionPreservesTTL(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx, WithSweepInterval(time.Hour))
	l2 := NewMemory(ctx, WithSweepInterval(time.Hour))
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	// Short-lived entry in both tiers, then evicted from L1 only.
	require.NoError(t, s.Set(ctx, "key", "A", 50*time.Millisecond))
	_, err := l1.Delete(ctx, "key")
	require.NoError(t, err)

	// The L2 hit is promoted back into L1 with its remaining TTL, not a
	// fresh default lease.
	found, val, err := s.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "A", val)

	remaining, ok, err := l1.TTL(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.LessOrEqual(t, remaining, 50*time.Millisecond)

	// Past the original TTL nothing is served from any tier.
	time.Sleep(80 * time.Millisecond)
	found, _, err = s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestTieredPromotionSkipsExpired(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx, WithSweepInterval(time.Hour))
	l2 := NewMemory(ctx, WithSweepInterval(time.Hour))
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	require.NoError(t, l2.Set(ctx, "key", "A", 20*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	found, _, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)

	found, _, err = l1.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found, "expired entries must not be promoted")
}

func TestTieredTTL(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	_, ok, err := s.TTL(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l2.Set(ctx, "key", "value", time.Minute))
	remaining, ok, err := s.TTL(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, remaining, 50*time.Second)
	assert.LessOrEqual(t, remaining, time.Minute)
}

func TestTieredSetWritesAllTiers(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))

	found, _, _ := l1.Get(ctx, "key")
	assert.True(t, found)
	found, _, _ = l2.Get(ctx, "key")
	assert.True(t, found)
}

func TestTieredDeleteAllTiers(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))

	found, err := s.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	found, _, _ = l1.Get(ctx, "key")
	assert.False(t, found)
	found, _, _ = l2.Get(ctx, "key")
	assert.False(t, found)
}

func TestTieredHits(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemory(ctx)
	l2 := NewMemory(ctx)
	s := NewTiered(l1, l2)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	_, _, err := s.Get(ctx, "key")
	require.NoError(t, err)

	found, hits := s.Hits(ctx, "key")
	assert.True(t, found)
	assert.Equal(t, 1, hits)
}

func TestTieredEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { NewTiered() })
}
