package qlock

import (
	"github.com/go-taomp/taomp/padding"
)

// MCSNode is an MCS queue node. The original packs a granted flag and a
// successor pointer into one atomic word using fetch-or; Go's sync/atomic
// has no fetch-or over a pointer-sized word, and packing a live pointer into
// a bare uintptr is unsafe under Go's garbage collector. This implements
// the split-word fallback the design explicitly allows for platforms
// lacking fetch-or: a separate granted flag and a separate successor
// pointer, published in the same two steps (successor first, then grant) so
// the releaser never grants before the successor is visible and never
// leaves a stale pointer behind. An MCSNode is owned by its thread for the
// thread's lifetime and reused across that thread's successive
// acquisitions.
type MCSNode struct {
	next    padding.Pointer[MCSNode]
	granted padding.Bool
}

// MCSLock is the Mellor-Crummey and Scott queue lock: an explicit linked
// list built from caller-owned nodes, where each waiter spins only on its
// own node.
type MCSLock struct {
	tail padding.Pointer[MCSNode]
}

// NewMCSLock returns an empty MCS lock.
func NewMCSLock() *MCSLock {
	return &MCSLock{}
}

// Acquire takes the lock using my as the caller's node. If the lock is
// uncontended, my is granted immediately; otherwise Acquire registers my as
// the current tail's successor and spins on my's own granted flag until the
// predecessor grants it.
func (l *MCSLock) Acquire(my *MCSNode) {
	my.next.Store(nil)
	my.granted.Store(false)
	prev := l.tail.Swap(my)
	if prev == nil {
		my.granted.Store(true)
		return
	}
	prev.next.Store(my)
	for !my.granted.Load() {
		// spin on our own node's line.
	}
}

// Release gives up the lock held via my.
func (l *MCSLock) Release(my *MCSNode) {
	if l.tail.CompareAndSwap(my, nil) {
		my.granted.Store(false)
		return
	}
	// A successor is in the process of publishing itself via Acquire;
	// spin until its pointer appears, then grant it.
	var succ *MCSNode
	for {
		succ = my.next.Load()
		if succ != nil {
			break
		}
	}
	succ.granted.Store(true)
	my.next.Store(nil)
	my.granted.Store(false)
}

// MCSGuard scopes an MCS acquisition.
type MCSGuard struct {
	lock *MCSLock
	my   *MCSNode
}

// NewMCSGuard acquires lock using my and returns a Guard that releases it on
// Close.
func NewMCSGuard(lock *MCSLock, my *MCSNode) *MCSGuard {
	lock.Acquire(my)
	return &MCSGuard{lock: lock, my: my}
}

// Close releases the lock.
func (g *MCSGuard) Close() {
	g.lock.Release(g.my)
}
