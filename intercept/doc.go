// Package intercept wraps a request handler with a response cache,
// collapsing concurrent identical requests into a single execution.
//
// # Resolving
//
// An [Interceptor] is built from three caller-supplied pieces: a
// [cache.Store], a pure [KeyFunc] that maps a request to its cache key, and
// the [Handler] being wrapped. The interceptor is agnostic to what
// constitutes request identity — the key function owns that decision.
//
//	icp, err := intercept.New(store,
//	    func(req ListRequest) (string, error) {
//	        return keys.Request("GET /users", req.Principal, req.Filter)
//	    },
//	    func(ctx context.Context, req ListRequest) ([]User, error) {
//	        return repo.ListUsers(ctx, req.Filter)
//	    },
//	    intercept.WithTTL(time.Minute),
//	)
//
//	users, err := icp.Resolve(ctx, req)
//
// [Interceptor.Resolve] returns the stored value on an unexpired hit with no
// side effects. On a miss it invokes the handler, stores the result under
// the key with the configured TTL, and returns it.
//
// # Single-Flight
//
// Population is single-flight per key, via golang.org/x/sync/singleflight:
// while an invocation is in flight, every other Resolve for the same key
// waits for and receives that invocation's result instead of invoking the
// handler again. A handler error is propagated to all current waiters,
// nothing is cached, and the in-flight marker is cleared so the next call
// retries.
//
// The in-flight invocation runs on a context detached from any single
// caller ([context.WithoutCancel]): a waiter whose context is cancelled gets
// its ctx.Err() back immediately, while the invocation and its remaining
// waiters proceed undisturbed.
//
// # Fail-Open
//
// Store failures never fail a request. When a store read or write errors,
// the event is logged and counted, and Resolve falls through to the handler.
// A [resilience.Breaker] trips after consecutive store failures so a dead
// store is not probed on every request; while the breaker is open the store
// is bypassed outright, and a single probe after the cooldown decides when
// to resume. Store-level failures are reported as StoreErrors/Bypasses in
// [Stats], never as hits or misses.
//
// # Invalidation and Stats
//
// [Interceptor.Invalidate] (or [Interceptor.InvalidateKey]) removes an entry
// immediately; removing an absent key is a no-op. [Interceptor.Stats]
// returns the counter snapshot; [WithMetrics] additionally publishes the
// counters through OpenTelemetry.
package intercept
