package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is a TTL key/value store for cached responses. Implementations must
// never return an entry whose age exceeds its TTL; expiry is checked on
// every read regardless of any background sweep.
type Store interface {
	// Get retrieves a value. Returns found=false for missing or expired keys.
	Get(ctx context.Context, key string) (bool, any, error)

	// Set stores a value with a TTL. If ttl <= 0, the store's configured
	// default TTL is used.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error

	// Delete removes a key immediately. Returns false when the key was
	// absent; absence is not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// Hits returns the number of times a key has been read since it was
	// last written.
	Hits(ctx context.Context, key string) (bool, int)

	// TTL returns the remaining time-to-live of a key. Returns false for
	// missing or expired keys.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Close shuts down the store and releases its resources.
	Close(ctx context.Context) error
}

type entry struct {
	object  any
	expires time.Time
	hits    int
}

// As retrieves a typed value from a store. For the memory backend it is a
// direct type assertion. For serialized backends (SQLite, Redis) the stored
// []byte is decoded with msgpack, so As works transparently regardless of
// which backend produced the value.
func As[T any](ctx context.Context, s Store, key string) (bool, T, error) {
	var zero T
	found, val, err := s.Get(ctx, key)
	if !found || err != nil {
		return false, zero, err
	}
	if typed, ok := val.(T); ok {
		return true, typed, nil
	}
	if data, ok := val.([]byte); ok {
		var result T
		if err := msgpack.Unmarshal(data, &result); err != nil {
			return false, zero, fmt.Errorf("cache: failed to unmarshal value: %w", err)
		}
		return true, result, nil
	}
	return false, zero, fmt.Errorf("cache: cannot convert value of type %T to %T", val, zero)
}

// DefaultTTL is used by Set when the store has no explicit default configured.
const DefaultTTL = 5 * time.Minute

// DefaultQueryTimeout is the per-operation timeout for backends that perform
// I/O (SQLite, Redis). Prevents indefinite hangs on slow or unresponsive
// storage.
const DefaultQueryTimeout = 5 * time.Second

// EvictionPolicy selects how the memory backend reclaims space when it is
// at capacity.
type EvictionPolicy string

const (
	// EvictLRU evicts the least recently read entry.
	EvictLRU EvictionPolicy = "lru"
	// EvictTTLOnly never reorders on read; when the store is full the entry
	// written longest ago is evicted.
	EvictTTLOnly EvictionPolicy = "ttl-only"
)

type config struct {
	defaultTTL    time.Duration
	queryTimeout  time.Duration
	sweepInterval time.Duration
	prefix        string
	maxEntries    int
	policy        EvictionPolicy
}

// Option configures a Store implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		defaultTTL:    DefaultTTL,
		queryTimeout:  DefaultQueryTimeout,
		sweepInterval: time.Minute,
		policy:        EvictLRU,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDefaultTTL sets the TTL used when Set is called with ttl <= 0.
// Defaults to DefaultTTL (5 minutes).
func WithDefaultTTL(d time.Duration) Option {
	return func(c *config) { c.defaultTTL = d }
}

// WithQueryTimeout sets the per-operation timeout for I/O-backed stores
// (SQLite, Redis). Defaults to DefaultQueryTimeout (5 seconds).
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithSweepInterval sets the interval for background expired entry cleanup.
// Applies to the memory and SQLite backends. Defaults to 1 minute.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) { c.sweepInterval = d }
}

// WithPrefix sets the key prefix for namespacing. Applies to the Redis
// backend. Defaults to empty (no prefix).
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

// WithMaxEntries bounds the number of entries held by the memory backend.
// Zero (the default) means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *config) { c.maxEntries = n }
}

// WithEvictionPolicy selects the memory backend's eviction policy.
// Defaults to EvictLRU.
func WithEvictionPolicy(p EvictionPolicy) Option {
	return func(c *config) { c.policy = p }
}
