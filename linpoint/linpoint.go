// Package linpoint provides per-thread before/after timestamps bracketing an
// atomic commit point, used to give lock-free operations an approximate
// linearization interval for property-based testing. Go exposes no portable
// userspace cycle counter, so stamps are monotonic timestamps from
// time.Now(); out-of-order execution and scheduler preemption mean these are
// best-effort bounds, not a total order, exactly as the original's own
// design notes caution for CPU-cycle stamps.
package linpoint

import (
	"time"

	"github.com/go-taomp/taomp/registry"
)

// Stamp is the [before, after] bracket recorded around one operation's
// linearization point.
type Stamp struct {
	Before, After time.Time
}

// Overlaps reports whether two stamps' intervals intersect, which is the
// admissible notion of concurrency property tests should use instead of a
// strict total order.
func (s Stamp) Overlaps(other Stamp) bool {
	return !s.After.Before(other.Before) && !other.After.Before(s.Before)
}

// Recorder is the interface msqueue.Queue depends on to bracket its commit
// CAS. Tracker implements it with real timestamps; NoOp costs nothing when
// linearization instrumentation is disabled.
type Recorder interface {
	Before(tid registry.ThreadID)
	After(tid registry.ThreadID)
	Last(tid registry.ThreadID) Stamp
}

// NoOp is a Recorder whose methods do nothing. It is the default Recorder
// for a queue constructed without linearization instrumentation, playing
// the role the original's compile-time template toggle plays in C++.
type NoOp struct{}

func (NoOp) Before(registry.ThreadID) {}
func (NoOp) After(registry.ThreadID)  {}
func (NoOp) Last(registry.ThreadID) Stamp {
	return Stamp{}
}

type slot struct {
	before, after time.Time
	// pad separates each thread's pair of timestamps onto its own cache
	// line; only one thread ever writes a given slot; only tests read
	// another thread's.
	pad [64]byte
}

// Tracker is a Recorder backed by per-thread storage, one pair of
// timestamps per registered thread.
type Tracker struct {
	data []slot
}

// NewTracker allocates a Tracker sized for threadNum threads.
func NewTracker(threadNum int) *Tracker {
	return &Tracker{data: make([]slot, threadNum)}
}

// Before stamps the start of tid's linearization window.
func (t *Tracker) Before(tid registry.ThreadID) {
	t.data[tid].before = time.Now()
}

// After stamps the end of tid's linearization window.
func (t *Tracker) After(tid registry.ThreadID) {
	t.data[tid].after = time.Now()
}

// Last returns the most recently recorded stamp for tid.
func (t *Tracker) Last(tid registry.ThreadID) Stamp {
	return Stamp{Before: t.data[tid].before, After: t.data[tid].after}
}
