package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(3, time.Second)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Second)

	b.Failure()
	b.Failure()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.Failure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	// Failures were not consecutive; still closed.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenSingleProbe(t *testing.T) {
	b := NewBreaker(1, 20*time.Millisecond)

	b.Failure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(30 * time.Millisecond)

	// Exactly one caller wins the probe.
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerProbeSuccessCloses(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)

	b.Failure()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())

	b.Success()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)

	b.Failure()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())

	b.Failure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerReset(t *testing.T) {
	b := NewBreaker(1, time.Hour)

	b.Failure()
	assert.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreakerDefaults(t *testing.T) {
	b := NewBreaker(0, 0)
	for i := 0; i < DefaultThreshold-1; i++ {
		b.Failure()
	}
	assert.Equal(t, StateClosed, b.State())
	b.Failure()
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerConcurrentProbe(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)
	b.Failure()
	time.Sleep(20 * time.Millisecond)

	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow() {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, count)
}
