package intercept

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"github.com/clearlake/rescache/cache"
)

// ErrEmptyKey is returned when the key function produces an empty key.
// It is rejected before any store access.
var ErrEmptyKey = errors.New("intercept: key function returned an empty key")

// KeyFunc derives a deterministic cache key from a request. It must be pure:
// equivalent requests map to the same key, non-equivalent requests to
// distinct keys. See the keys package for common derivations.
type KeyFunc[R any] func(req R) (string, error)

// Handler is the wrapped business logic that produces a response for a
// request. It is only invoked on a cache miss, at most once concurrently
// per key.
type Handler[R, T any] func(ctx context.Context, req R) (T, error)

// Interceptor wraps a Handler with a cache.Store, collapsing concurrent
// identical requests into a single handler invocation and failing open when
// the store is unavailable. Construct with New; the zero value is not usable.
type Interceptor[R, T any] struct {
	store   cache.Store
	keyFn   KeyFunc[R]
	handler Handler[R, T]
	cfg     config
	inst    *instruments
	flight  singleflight.Group

	hits        atomic.Uint64
	misses      atomic.Uint64
	invocations atomic.Uint64
	coalesced   atomic.Uint64
	storeErrors atomic.Uint64
	bypasses    atomic.Uint64
}

// New returns an Interceptor over store, keyFn, and handler. All three are
// required.
func New[R, T any](store cache.Store, keyFn KeyFunc[R], handler Handler[R, T], opts ...Option) (*Interceptor[R, T], error) {
	if store == nil {
		return nil, errors.New("intercept: store is required")
	}
	if keyFn == nil {
		return nil, errors.New("intercept: key function is required")
	}
	if handler == nil {
		return nil, errors.New("intercept: handler is required")
	}
	cfg := applyOptions(opts)
	inst, err := newInstruments(cfg.meterProvider)
	if err != nil {
		return nil, err
	}
	return &Interceptor[R, T]{
		store:   store,
		keyFn:   keyFn,
		handler: handler,
		cfg:     cfg,
		inst:    inst,
	}, nil
}

// Resolve returns a response for req, from the store when an unexpired entry
// exists, otherwise by invoking the handler. Concurrent calls for the same
// key share one handler invocation. Handler errors are returned verbatim to
// every waiter and are never cached. Store failures degrade to direct
// handler invocation and never fail the request. If ctx is cancelled while
// waiting on another caller's invocation, Resolve returns ctx.Err() without
// disturbing the invocation or its other waiters.
func (i *Interceptor[R, T]) Resolve(ctx context.Context, req R) (T, error) {
	var zero T
	key, err := i.keyFn(req)
	if err != nil {
		return zero, errors.Wrap(err, "intercept: key derivation failed")
	}
	if key == "" {
		return zero, ErrEmptyKey
	}

	if i.cfg.breaker.Allow() {
		found, val, err := cache.As[T](ctx, i.store, key)
		switch {
		case err != nil:
			i.storeFailure(key, "get", err)
		case found:
			i.cfg.breaker.Success()
			i.hits.Add(1)
			i.inst.hit(ctx)
			return val, nil
		default:
			i.cfg.breaker.Success()
			i.misses.Add(1)
			i.inst.miss(ctx)
		}
	} else {
		i.bypasses.Add(1)
		i.cfg.log.Debug("store circuit open, bypassing cache for key %s", key)
	}

	// Only the caller whose closure runs executes the handler; everyone
	// else in the flight is a coalesced waiter.
	var executed bool
	ch := i.flight.DoChan(key, func() (any, error) {
		executed = true
		i.invocations.Add(1)
		i.inst.invocation(ctx)
		// The invocation may outlive the caller that started it: a cancelled
		// waiter must not abort the population other callers depend on.
		hctx := context.WithoutCancel(ctx)
		val, err := i.handler(hctx, req)
		if err != nil {
			return nil, err
		}
		i.storeSet(hctx, key, val)
		return val, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared && !executed {
			i.coalesced.Add(1)
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate removes the entry for req's key immediately. Removing an
// absent key is a no-op.
func (i *Interceptor[R, T]) Invalidate(ctx context.Context, req R) error {
	key, err := i.keyFn(req)
	if err != nil {
		return errors.Wrap(err, "intercept: key derivation failed")
	}
	return i.InvalidateKey(ctx, key)
}

// InvalidateKey removes the entry for an already-derived key.
func (i *Interceptor[R, T]) InvalidateKey(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := i.store.Delete(ctx, key); err != nil {
		i.storeFailure(key, "delete", err)
		return errors.Wrap(err, "intercept: invalidate failed")
	}
	i.cfg.breaker.Success()
	return nil
}

func (i *Interceptor[R, T]) storeSet(ctx context.Context, key string, val T) {
	if !i.cfg.breaker.Allow() {
		i.bypasses.Add(1)
		return
	}
	// A failed write is a degradation, not a failure: the caller already
	// has their value.
	if err := i.store.Set(ctx, key, val, i.cfg.ttl); err != nil {
		i.storeFailure(key, "set", err)
		return
	}
	i.cfg.breaker.Success()
}

func (i *Interceptor[R, T]) storeFailure(key, op string, err error) {
	i.storeErrors.Add(1)
	i.inst.storeError(context.Background())
	i.cfg.breaker.Failure()
	i.cfg.log.With(map[string]interface{}{"key": key, "op": op}).Warn("cache store unavailable, failing open: %v", err)
}

// Stats is a snapshot of the interceptor's counters.
type Stats struct {
	// Hits is the number of resolves served from the store.
	Hits uint64
	// Misses is the number of resolves that found no usable entry.
	Misses uint64
	// Invocations is the number of actual handler executions.
	Invocations uint64
	// Coalesced is the number of resolves that shared another caller's
	// in-flight invocation instead of starting their own.
	Coalesced uint64
	// StoreErrors is the number of store operations that failed.
	StoreErrors uint64
	// Bypasses is the number of store operations skipped because the
	// breaker was open.
	Bypasses uint64
}

// Stats returns a snapshot of hit/miss and fail-open counters.
func (i *Interceptor[R, T]) Stats() Stats {
	return Stats{
		Hits:        i.hits.Load(),
		Misses:      i.misses.Load(),
		Invocations: i.invocations.Load(),
		Coalesced:   i.coalesced.Load(),
		StoreErrors: i.storeErrors.Load(),
		Bypasses:    i.bypasses.Load(),
	}
}
