package intercept

import (
	"os"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/clearlake/rescache/logger"
	"github.com/clearlake/rescache/resilience"
)

type config struct {
	ttl           time.Duration
	log           logger.Logger
	breaker       *resilience.Breaker
	meterProvider metric.MeterProvider
}

// Option configures an Interceptor.
type Option func(*config)

func applyOptions(opts []Option) config {
	cfg := config{
		log:     logger.None(),
		breaker: resilience.NewBreaker(0, 0),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTTL sets the TTL applied when storing handler results. Zero (the
// default) defers to the store's configured default TTL.
func WithTTL(d time.Duration) Option {
	return func(c *config) { c.ttl = d }
}

// WithLogger sets the logger for fail-open and bypass events. Defaults to a
// discard logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBreaker replaces the circuit breaker guarding store access. The
// default opens after resilience.DefaultThreshold consecutive store
// failures.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *config) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithMeterProvider enables OpenTelemetry counters (hits, misses, handler
// invocations, store errors) on the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.meterProvider = mp }
}

// WithMetrics enables OpenTelemetry counters on the globally registered
// meter provider.
func WithMetrics() Option {
	return func(c *config) { c.meterProvider = otel.GetMeterProvider() }
}

// TTLFromEnv reads a human-readable duration (e.g. "90s", "5m", "1h30m")
// from the named environment variable. Unset or unparsable values return
// fallback.
func TTLFromEnv(envKey string, fallback time.Duration) time.Duration {
	val := os.Getenv(envKey)
	if val == "" {
		return fallback
	}
	d, err := str2duration.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
