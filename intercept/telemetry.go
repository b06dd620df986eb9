package intercept

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// instruments holds the optional OpenTelemetry counters. A nil *instruments
// is valid and records nothing, so the hot path never branches on
// configuration.
type instruments struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	invocations metric.Int64Counter
	storeErrors metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	if mp == nil {
		return nil, nil
	}
	meter := mp.Meter("github.com/clearlake/rescache/intercept")

	hits, err := meter.Int64Counter("rescache.resolve.hits",
		metric.WithDescription("Resolves served from the cache store"))
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter("rescache.resolve.misses",
		metric.WithDescription("Resolves that found no usable cache entry"))
	if err != nil {
		return nil, err
	}
	invocations, err := meter.Int64Counter("rescache.handler.invocations",
		metric.WithDescription("Actual handler executions"))
	if err != nil {
		return nil, err
	}
	storeErrors, err := meter.Int64Counter("rescache.store.errors",
		metric.WithDescription("Cache store operations that failed"))
	if err != nil {
		return nil, err
	}

	return &instruments{
		hits:        hits,
		misses:      misses,
		invocations: invocations,
		storeErrors: storeErrors,
	}, nil
}

func (m *instruments) hit(ctx context.Context) {
	if m != nil {
		m.hits.Add(ctx, 1)
	}
}

func (m *instruments) miss(ctx context.Context) {
	if m != nil {
		m.misses.Add(ctx, 1)
	}
}

func (m *instruments) invocation(ctx context.Context) {
	if m != nil {
		m.invocations.Add(ctx, 1)
	}
}

func (m *instruments) storeError(ctx context.Context) {
	if m != nil {
		m.storeErrors.Add(ctx, 1)
	}
}
