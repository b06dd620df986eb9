package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisStore struct {
	client *redis.Client
	cfg    config
}

var _ Store = (*redisStore)(nil)

// NewRedis returns a Store backed by Redis. Values are msgpack-serialized
// and kept in a hash (field "v" for the value, "h" for the hit count) so a
// single key carries both; expiry uses native Redis TTL. The caller owns the
// redis.Client lifecycle — Close does not close the client.
func NewRedis(client *redis.Client, opts ...Option) Store {
	return &redisStore{
		client: client,
		cfg:    applyOptions(opts),
	}
}

func (r *redisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, r.cfg.queryTimeout)
}

func (r *redisStore) prefixKey(key string) string {
	if r.cfg.prefix == "" {
		return key
	}
	return r.cfg.prefix + ":" + key
}

func (r *redisStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	k := r.prefixKey(key)
	data, err := r.client.HGet(qctx, k, "v").Bytes()
	if err == redis.Nil {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	// Increment hits (fire-and-forget, don't fail the Get).
	r.client.HIncrBy(qctx, k, "h", 1)
	return true, data, nil
}

func (r *redisStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.cfg.defaultTTL
	}
	data, err := msgpack.Marshal(val)
	if err != nil {
		return err
	}
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	k := r.prefixKey(key)
	pipe := r.client.Pipeline()
	pipe.HSet(qctx, k, "v", data, "h", 0)
	pipe.Expire(qctx, k, ttl)
	_, err = pipe.Exec(qctx)
	return err
}

func (r *redisStore) Delete(ctx context.Context, key string) (bool, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	result, err := r.client.Del(qctx, r.prefixKey(key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func (r *redisStore) Hits(ctx context.Context, key string) (bool, int) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	hits, err := r.client.HGet(qctx, r.prefixKey(key), "h").Int()
	if err != nil {
		return false, 0
	}
	return true, hits
}

func (r *redisStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()
	d, err := r.client.PTTL(qctx, r.prefixKey(key)).Result()
	if err != nil {
		return 0, false, err
	}
	// Negative replies mean missing (-2) or no expiry set (-1).
	if d <= 0 {
		return 0, false, nil
	}
	return d, true, nil
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (r *redisStore) Close(_ context.Context) error {
	return nil
}
