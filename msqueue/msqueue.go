// Package msqueue implements the Michael-Scott lock-free FIFO queue on top
// of package hazard for safe memory reclamation, with an optional
// per-operation linearization-point instrumentation mixin from package
// linpoint.
package msqueue

import (
	"github.com/go-taomp/taomp/hazard"
	"github.com/go-taomp/taomp/linpoint"
	"github.com/go-taomp/taomp/padding"
	"github.com/go-taomp/taomp/registry"
)

type node[T any] struct {
	next  padding.Pointer[node[T]]
	value T
}

type nodeAllocator[T any] struct{}

func (nodeAllocator[T]) Allocate(n int) []*node[T] {
	out := make([]*node[T], n)
	for i := range out {
		out[i] = &node[T]{}
	}
	return out
}

func (nodeAllocator[T]) Deallocate(*node[T]) {
	// Go's GC reclaims the node once nothing references it; this exists to
	// satisfy hazard.Allocator's contract and as the hook a debug build
	// could use to poison freed nodes.
}

// Option configures a Queue at construction.
type Option func(*options)

type options struct {
	linearize bool
}

// WithLinearization enables per-operation before/after timestamping around
// each commit CAS, standing in for the original's compile-time template
// toggle: Go has no template specialization, so the choice is a
// construction-time flag that selects between two concrete Recorder
// implementations. Each bracket costs one interface call either way; when
// disabled, the call lands on linpoint.NoOp's empty methods.
func WithLinearization() Option {
	return func(o *options) { o.linearize = true }
}

// Queue is a Michael-Scott FIFO queue. Each registered thread is assigned
// two hazard slots, used to protect the node it is dereferencing and, for
// Dequeue, the node that may become the new sentinel.
type Queue[T any] struct {
	sentinel *node[T]
	head     padding.Pointer[node[T]]
	tail     padding.Pointer[node[T]]
	gc       *hazard.Domain[node[T]]
	rec      linpoint.Recorder
	tracker  *linpoint.Tracker
}

// New builds a Queue sized for threadNum concurrent callers.
func New[T any](threadNum int, opts ...Option) *Queue[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	gc, err := hazard.New[node[T]](threadNum, 2*threadNum, nodeAllocator[T]{}, 0)
	if err != nil {
		panic(err)
	}
	sentinel := &node[T]{}
	q := &Queue[T]{sentinel: sentinel, gc: gc}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	if o.linearize {
		t := linpoint.NewTracker(threadNum)
		q.tracker = t
		q.rec = t
	} else {
		q.rec = linpoint.NoOp{}
	}
	return q
}

// LinearizationStamp returns the most recently recorded before/after bracket
// for tid. It is only meaningful when the Queue was built WithLinearization.
func (q *Queue[T]) LinearizationStamp(tid registry.ThreadID) linpoint.Stamp {
	return q.rec.Last(tid)
}

// Enqueue appends v to the tail of the queue.
//
// Linearization point: the successful CAS that links the new node onto the
// previous tail's next pointer.
func (q *Queue[T]) Enqueue(tid registry.ThreadID, v T) {
	win := q.gc.Window(tid, 2)
	n := nodeAllocator[T]{}.Allocate(1)[0]
	n.value = v

	var t *node[T]
	for {
		t = q.tail.Load()
		win.Preserve(0, t)
		if q.tail.Load() != t {
			continue
		}
		next := t.next.Load()
		if next != nil {
			// Help a lagging enqueuer swing the tail forward before
			// retrying our own attempt.
			q.tail.CompareAndSwap(t, next)
			continue
		}
		q.rec.Before(tid)
		if t.next.CompareAndSwap(nil, n) {
			q.rec.After(tid)
			break
		}
	}
	q.tail.CompareAndSwap(t, n)
	win.Preserve(0, nil)
}

// Dequeue removes and returns the value at the head of the queue. The
// second return value is false if the queue was observed empty.
//
// Linearization point: the successful CAS that advances head past the
// sentinel, or (for an empty result) the read of next that observed nil
// while head == tail.
func (q *Queue[T]) Dequeue(tid registry.ThreadID) (T, bool) {
	win := q.gc.Window(tid, 2)
	var zero T

	var h *node[T]
	for {
		h = q.head.Load()
		win.Preserve(0, h)
		if q.head.Load() != h {
			continue
		}
		t := q.tail.Load()
		q.rec.Before(tid)
		next := h.next.Load()
		q.rec.After(tid)
		win.Preserve(1, next)
		if q.head.Load() != h {
			continue
		}
		if h == t {
			if next == nil {
				win.Preserve(0, nil)
				win.Preserve(1, nil)
				return zero, false
			}
			// A concurrent enqueuer linked a node but has not yet
			// swung tail; help it along and retry.
			q.tail.CompareAndSwap(t, next)
			continue
		}
		// Defensive branch: an interleaving in which a helper already
		// advanced tail can still leave next nil here. Kept per the
		// open question in the design notes; adversarial schedules
		// have historically required it.
		if next == nil {
			win.Preserve(0, nil)
			win.Preserve(1, nil)
			return zero, false
		}
		value := next.value
		q.rec.Before(tid)
		if q.head.CompareAndSwap(h, next) {
			q.rec.After(tid)
			win.Preserve(0, nil)
			win.Preserve(1, nil)
			q.gc.Retire(tid, h)
			return value, true
		}
	}
}
