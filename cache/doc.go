// Package cache provides the TTL store backends used by the interceptor,
// behind a single [Store] interface.
//
// # Store Interface
//
// [Store] defines six operations: [Store.Get], [Store.Set], [Store.Delete],
// [Store.Hits], [Store.TTL], and [Store.Close]. All backends satisfy the
// interface, so
// they can be swapped without changing application code. Expiry is enforced
// at read time: no backend ever returns an entry older than its TTL, whether
// or not a background sweep has run.
//
// The interface uses [any] for values because Go does not allow generic
// methods on interfaces. Type safety is provided by the package-level
// generic [As]:
//
//	found, resp, err := cache.As[Response](ctx, store, "GET:/users/123")
//
// For the memory backend [As] is a direct type assertion (zero cost). For
// serialized backends it decodes the stored []byte via msgpack, so it works
// transparently regardless of which backend produced the value.
//
// # Backends
//
//   - [NewMemory] — in-process map guarded by a mutex, with an LRU list for
//     bounded capacity ([WithMaxEntries]). Eviction is [EvictLRU] by default;
//     [EvictTTLOnly] keeps insertion order and only falls back to evicting
//     the oldest write when nothing has expired. Values are stored as-is with
//     no serialization. A background goroutine sweeps expired entries.
//
//   - [NewSQLite] — backed by a SQLite database using modernc.org/sqlite
//     (pure Go, no CGO). Values are msgpack BLOBs; WAL mode is enabled and
//     every operation carries a per-query timeout ([DefaultQueryTimeout]).
//     File-backed databases survive process restarts.
//
//   - [NewRedis] — backed by Redis using github.com/redis/go-redis/v9.
//     Values live in Redis hashes (field "v" for the value, "h" for the hit
//     count) with native Redis TTLs, so no sweep goroutine is needed. An
//     optional prefix ([WithPrefix]) namespaces multiple caches on one
//     instance. The caller owns the redis.Client; [Store.Close] is a no-op.
//
//   - [NewTiered] — chains stores into a multi-tier topology. Reads return
//     the first hit and promote it into the faster tiers with its remaining
//     TTL; writes and deletes go to every tier.
//
// # Serialization
//
// The SQLite and Redis backends serialize values with msgpack. Primitives,
// exported-field structs, maps, slices, and pointers all work; functions and
// channels do not, and will fail at [Store.Set] time. The memory backend has
// no serialization constraints.
package cache
