// Package retry provides a bounded retry combinator on top of
// cenkalti/backoff with named policies for the push registration pipeline.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry schedule.
//
// The delay before attempt n+1 is BaseDelay * Multiplier^(n-1), capped at
// MaxDelay when it is set. A Multiplier of 1 gives a constant delay.
type Policy struct {
	// Name identifies the policy in logs.
	Name string

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// Multiplier scales the delay after every further failure.
	// Values below 1 are treated as 1.
	Multiplier float64

	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay time.Duration
}

// TokenAcquisitionPolicy allows one extra request after a fixed one second
// pause when the provider returns a malformed token.
var TokenAcquisitionPolicy = Policy{
	Name:        "token_acquisition",
	MaxAttempts: 2,
	BaseDelay:   1 * time.Second,
	Multiplier:  1,
}

// BackendRegistrationPolicy allows three attempts with delays doubling from
// one second.
var BackendRegistrationPolicy = Policy{
	Name:        "backend_registration",
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	Multiplier:  2,
}

// ErrInvalidPolicy is returned when a policy allows no attempts.
var ErrInvalidPolicy = errors.New("retry policy must allow at least one attempt")

// Operation is a single attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// NotifyFunc is called after a failed attempt that will be retried.
type NotifyFunc func(attempt int, err error, next time.Duration)

type options struct {
	timer  backoff.Timer
	notify NotifyFunc
}

// Option configures a single Do call.
type Option func(*options)

// WithTimer replaces the wall clock timer used between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) {
		o.timer = t
	}
}

// WithNotify registers a callback for retried failures.
func WithNotify(fn NotifyFunc) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// Permanent marks err as not retryable. Do returns the wrapped error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Delays returns the waits that separate the attempts of a fully failing run.
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	bo := p.backOff()
	bo.Reset()
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		delays = append(delays, bo.NextBackOff())
	}
	return delays
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = multiplier
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // bounded by attempts, not elapsed time
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	} else {
		bo.MaxInterval = time.Duration(1<<63 - 1)
	}
	return bo
}

// Do runs op until it succeeds, returns a permanent error, the context is
// done, or the policy runs out of attempts. The error of the last attempt is
// returned on exhaustion.
func Do(ctx context.Context, p Policy, op Operation, opts ...Option) error {
	if p.MaxAttempts < 1 {
		return ErrInvalidPolicy
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	// WithMaxRetries counts retries, not attempts.
	//nolint:gosec // MaxAttempts is checked above
	bo := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(p.MaxAttempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		return op(ctx, attempt)
	}

	var notify backoff.Notify
	if o.notify != nil {
		notify = func(err error, next time.Duration) {
			o.notify(attempt, err, next)
		}
	}

	return backoff.RetryNotifyWithTimer(operation, bo, notify, o.timer)
}
