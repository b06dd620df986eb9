// Package resilience provides the circuit breaker that guards the cache
// store in the fail-open path. When the store keeps erroring, the breaker
// opens and callers stop probing it on every request; after a cooldown a
// single probe decides whether to close again.
package resilience

import (
	"sync/atomic"
	"time"
)

// State is the current breaker state.
type State int32

const (
	// StateClosed allows all operations.
	StateClosed State = iota
	// StateHalfOpen allows a single probe after the cooldown.
	StateHalfOpen
	// StateOpen rejects all operations until the cooldown elapses.
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// DefaultThreshold is the number of consecutive failures that opens the
// breaker when no explicit threshold is configured.
const DefaultThreshold = 3

// DefaultCooldown is how long an open breaker waits before allowing a probe.
const DefaultCooldown = 10 * time.Second

// Breaker is a consecutive-failure circuit breaker. All state is atomic;
// there are no goroutines and no locks, so it is safe on the request path.
type Breaker struct {
	threshold int32
	cooldown  time.Duration

	state    atomic.Int32
	failures atomic.Int32
	openedAt atomic.Int64 // unix nano
	probing  atomic.Bool
}

// NewBreaker returns a closed breaker that opens after threshold consecutive
// failures and allows a probe after cooldown. Non-positive arguments fall
// back to DefaultThreshold and DefaultCooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{
		threshold: int32(threshold),
		cooldown:  cooldown,
	}
}

// Allow reports whether an operation may proceed. In the open state it
// returns false until the cooldown elapses, then transitions to half-open
// and admits exactly one probe; other callers keep getting false until the
// probe reports Success or Failure.
func (b *Breaker) Allow() bool {
	switch State(b.state.Load()) {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(time.Unix(0, b.openedAt.Load())) < b.cooldown {
			return false
		}
		if b.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen)) {
			b.probing.Store(true)
			return true
		}
		return false
	case StateHalfOpen:
		return b.probing.CompareAndSwap(false, true)
	default:
		return false
	}
}

// Success records a successful operation. It resets the failure count and
// closes a half-open breaker.
func (b *Breaker) Success() {
	b.failures.Store(0)
	if State(b.state.Load()) == StateHalfOpen {
		b.state.Store(int32(StateClosed))
		b.probing.Store(false)
	}
}

// Failure records a failed operation. A half-open breaker reopens
// immediately; a closed breaker opens once the consecutive failure count
// reaches the threshold.
func (b *Breaker) Failure() {
	switch State(b.state.Load()) {
	case StateHalfOpen:
		b.open()
	case StateClosed:
		if b.failures.Add(1) >= b.threshold {
			b.open()
		}
	}
}

func (b *Breaker) open() {
	b.openedAt.Store(time.Now().UnixNano())
	b.state.Store(int32(StateOpen))
	b.failures.Store(0)
	b.probing.Store(false)
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	return int(b.failures.Load())
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.state.Store(int32(StateClosed))
	b.failures.Store(0)
	b.probing.Store(false)
}
