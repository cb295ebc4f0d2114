package qlock

import (
	"github.com/go-taomp/taomp/padding"
)

// CLHNode is a CLH queue node: a single cache-line-padded flag. CLH's
// invariant is that each thread owns exactly one node at rest but swaps
// ownership across every acquisition: Acquire consumes the node passed in
// (it becomes the new queue tail, visible to whichever thread queues up
// next) and returns a different node (the predecessor, whose previous owner
// has moved on and will never touch it again). A caller must always hold
// exactly one CLHNode between calls; NewCLHNode produces that first one.
type CLHNode struct {
	locked padding.Bool
}

// NewCLHNode returns a fresh, unlocked node.
func NewCLHNode() *CLHNode {
	return &CLHNode{}
}

// CLHLock is the CLH queue lock: an implicit linked list represented by a
// single atomic tail pointer, where each waiter spins on its predecessor's
// node rather than on shared global state. This gives every thread its own
// cache line to spin on.
type CLHLock struct {
	tail padding.Pointer[CLHNode]
}

// NewCLHLock seeds the queue with an unlocked dummy node and returns the
// lock.
func NewCLHLock() *CLHLock {
	dummy := NewCLHNode()
	l := &CLHLock{}
	l.tail.Store(dummy)
	return l
}

// Acquire takes ownership of the lock using my as the caller's queue node.
// It gives up ownership of my (a later thread may queue behind it) and
// returns the predecessor node, which the caller now owns and must present
// to a future Acquire call.
func (l *CLHLock) Acquire(my *CLHNode) (pred *CLHNode) {
	my.locked.Store(true)
	pred = l.tail.Swap(my)
	for pred.locked.Load() {
		// spin on the predecessor's line, not our own or a shared one.
	}
	return pred
}

// Release marks my as no longer held. my must be the node the caller passed
// into its most recent Acquire call, not the predecessor that call returned.
func (l *CLHLock) Release(my *CLHNode) {
	my.locked.Store(false)
}

// CLHGuard scopes a CLH acquisition, carrying the node passed into Acquire
// through the guard's lifetime so Release is called on the right node.
type CLHGuard struct {
	lock *CLHLock
	my   *CLHNode
}

// NewCLHGuard acquires lock using my as the caller's input node and returns
// a Guard that releases it on Close. The predecessor node returned by
// Acquire becomes the caller's new at-rest node once the guard closes.
func NewCLHGuard(lock *CLHLock, my *CLHNode) (*CLHGuard, *CLHNode) {
	pred := lock.Acquire(my)
	return &CLHGuard{lock: lock, my: my}, pred
}

// Close releases the lock.
func (g *CLHGuard) Close() {
	g.lock.Release(g.my)
}
