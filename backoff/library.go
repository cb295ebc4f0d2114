package backoff

import (
	"time"

	cenkalti "github.com/cenkalti/backoff/v4"
)

// FromLibrary adapts github.com/cenkalti/backoff/v4's ExponentialBackOff into
// a retry helper for use outside the measured spin loops: cmd/taompbench
// uses it to retry logger construction at startup. It is
// deliberately kept out of spinlock and qlock's hot paths: cenkalti/backoff
// allocates and jitters on every call, which would break the exact
// doubling-then-reset invariant that Exponential's property tests assume.
//
// FromLibrary genuinely sleeps the goroutine between attempts (time.Sleep),
// unlike Exponential, which always busy-waits; it does not implement Policy
// for that reason.
type FromLibrary struct {
	inner *cenkalti.ExponentialBackOff
}

// NewFromLibrary builds a FromLibrary policy whose delays start at initial
// and are capped at max, with no elapsed-time limit.
func NewFromLibrary(initial, max time.Duration) *FromLibrary {
	b := cenkalti.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.MaxElapsedTime = 0 // never give up on its own; caller decides when to stop
	b.Reset()
	return &FromLibrary{inner: b}
}

// Next sleeps for the library's next computed interval and returns the
// duration slept. It never returns done=true since MaxElapsedTime is 0.
func (f *FromLibrary) Next() (slept time.Duration, done bool) {
	d := f.inner.NextBackOff()
	if d == cenkalti.Stop {
		return 0, true
	}
	time.Sleep(d)
	return d, false
}

// Reset rewinds the underlying library backoff to its initial interval.
func (f *FromLibrary) Reset() {
	f.inner.Reset()
}
