package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSetGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close(ctx)

	found, val, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	ok, str, err := As[string](ctx, s, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", str)
}

func TestSQLiteStructRoundtrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, "")
	require.NoError(t, err)
	defer s.Close(ctx)

	type payload struct {
		Status  int                 `msgpack:"status"`
		Headers map[string][]string `msgpack:"headers"`
		Body    []byte              `msgpack:"body"`
	}

	expected := payload{
		Status:  200,
		Headers: map[string][]string{"Content-Type": {"text/plain"}},
		Body:    []byte("hello"),
	}
	require.NoError(t, s.Set(ctx, "resp", expected, time.Minute))

	ok, got, err := As[payload](ctx, s, "resp")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, expected, got)
}

func TestSQLiteExpiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithSweepInterval(time.Hour))
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", 20*time.Millisecond))
	found, _, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	// Expired entries are rejected at read even though no sweep has run.
	time.Sleep(30 * time.Millisecond)
	found, _, err = s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close(ctx)

	found, err := s.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	found, err = s.Delete(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)

	found, _, err = s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteHits(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	for i := 0; i < 3; i++ {
		_, _, err := s.Get(ctx, "key")
		require.NoError(t, err)
	}
	found, hits := s.Hits(ctx, "key")
	assert.True(t, found)
	assert.Equal(t, 3, hits)
}

func TestSQLiteTTL(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithSweepInterval(time.Hour))
	require.NoError(t, err)
	defer s.Close(ctx)

	_, ok, err := s.TTL(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "key", "value", time.Minute))
	remaining, ok, err := s.TTL(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, remaining, 50*time.Second)
	assert.LessOrEqual(t, remaining, time.Minute)

	require.NoError(t, s.Set(ctx, "short", "value", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, ok, err = s.TTL(ctx, "short")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "key", "survives", time.Minute))
	require.NoError(t, s.Close(ctx))

	// Reopen the same file; the entry survives the restart.
	s2, err := NewSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer s2.Close(ctx)

	ok, str, err := As[string](ctx, s2, "key")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "survives", str)
}

func TestSQLiteSweep(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(ctx, ":memory:", WithSweepInterval(20*time.Millisecond))
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Set(ctx, "key", "value", 10*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	found, _, err := s.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}
