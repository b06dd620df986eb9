package cache

import (
	"context"
	"time"
)

type tieredStore struct {
	tiers []Store
}

var _ Store = (*tieredStore)(nil)

// NewTiered chains stores into a multi-tier topology, e.g. memory L1 backed
// by Redis L2. Get checks tiers in order and returns the first hit,
// promoting the value into the tiers in front of it with the entry's
// remaining TTL, so promotion never extends the entry's original lifetime.
// Set and Delete apply to every tier. At least one store must be provided;
// panics if empty.
func NewTiered(tiers ...Store) Store {
	if len(tiers) == 0 {
		panic("cache: NewTiered requires at least one store")
	}
	return &tieredStore{tiers: tiers}
}

func (t *tieredStore) Get(ctx context.Context, key string) (bool, any, error) {
	for i, tier := range t.tiers {
		found, val, err := tier.Get(ctx, key)
		if err != nil {
			return false, nil, err
		}
		if found {
			// Best-effort promotion into the faster tiers, carrying the
			// entry's remaining TTL. If the entry expired between the Get
			// and the TTL read, skip promotion rather than grant a fresh
			// lease.
			if i > 0 {
				if remaining, ok, err := tier.TTL(ctx, key); err == nil && ok {
					for _, front := range t.tiers[:i] {
						_ = front.Set(ctx, key, val, remaining)
					}
				}
			}
			return true, val, nil
		}
	}
	return false, nil, nil
}

func (t *tieredStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	var firstErr error
	for _, tier := range t.tiers {
		if err := tier.Set(ctx, key, val, ttl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *tieredStore) Delete(ctx context.Context, key string) (bool, error) {
	anyFound := false
	for _, tier := range t.tiers {
		found, err := tier.Delete(ctx, key)
		if err != nil {
			return anyFound, err
		}
		if found {
			anyFound = true
		}
	}
	return anyFound, nil
}

func (t *tieredStore) Hits(ctx context.Context, key string) (bool, int) {
	for _, tier := range t.tiers {
		if found, hits := tier.Hits(ctx, key); found {
			return true, hits
		}
	}
	return false, 0
}

func (t *tieredStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	for _, tier := range t.tiers {
		d, ok, err := tier.TTL(ctx, key)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return d, true, nil
		}
	}
	return 0, false, nil
}

func (t *tieredStore) Close(ctx context.Context) error {
	var firstErr error
	for _, tier := range t.tiers {
		if err := tier.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
