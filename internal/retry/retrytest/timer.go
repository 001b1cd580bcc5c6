// Package retrytest provides a timer for retry tests that fires immediately
// and records the delays it was asked to wait.
package retrytest

import (
	"sync"
	"time"
)

// Timer implements backoff.Timer without sleeping.
type Timer struct {
	mu     sync.Mutex
	delays []time.Duration
	ch     chan time.Time
}

// NewTimer creates a Timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Start records d and fires at once.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delays = append(t.delays, d)
	t.ch = make(chan time.Time, 1)
	t.ch <- time.Now()
}

// Stop is a no-op.
func (t *Timer) Stop() {}

// C returns the channel of the most recent Start.
func (t *Timer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ch
}

// Delays returns the recorded delays in order.
func (t *Timer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Duration, len(t.delays))
	copy(out, t.delays)
	return out
}
