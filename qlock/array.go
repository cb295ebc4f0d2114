// Package qlock implements the FIFO queue locks: the bounded anonymous array
// lock (Anderson-style), CLH, and MCS.
package qlock

import (
	"github.com/go-taomp/taomp/padding"
)

// ArrayLock is Anderson's array-based queue lock: a ring of P cache-line
// padded flags, exactly one of which is true at any time, and a global
// ticket counter. P is rounded up to a power of two so ticket-to-slot
// arithmetic is a mask. ArrayLock does not support TryLock: once a ticket is
// drawn it cannot be returned.
type ArrayLock struct {
	slots []padding.Bool
	mask  uint32
	next  padding.Uint64
}

// NewArrayLock builds an ArrayLock sized for threadNum waiters.
func NewArrayLock(threadNum int) *ArrayLock {
	if threadNum <= 0 {
		panic("qlock: ArrayLock threadNum must be positive")
	}
	p := padding.RoundUpPow2(uint32(threadNum))
	l := &ArrayLock{
		slots: make([]padding.Bool, p),
		mask:  p - 1,
	}
	l.slots[0].Store(true)
	return l
}

// Lock draws a ticket, spins until that ticket's slot is granted, and
// returns the slot index as the handle the caller must pass to Unlock.
func (l *ArrayLock) Lock() uint32 {
	ticket := l.next.Add(1) - 1
	handle := uint32(ticket) & l.mask
	for !l.slots[handle].Load() {
		// spin: ArrayLock provides no backoff hook in the original,
		// since contention is bounded by the ring size itself.
	}
	return handle
}

// Unlock releases the slot identified by handle and grants the next ticket
// in FIFO order.
func (l *ArrayLock) Unlock(handle uint32) {
	l.slots[handle].Store(false)
	next := (handle + 1) & l.mask
	l.slots[next].Store(true)
}

// ArrayGuard scopes an ArrayLock acquisition, carrying the handle through
// its lifetime.
type ArrayGuard struct {
	lock   *ArrayLock
	handle uint32
}

// NewArrayGuard acquires lock and returns a Guard that releases it on
// Close.
func NewArrayGuard(lock *ArrayLock) *ArrayGuard {
	return &ArrayGuard{lock: lock, handle: lock.Lock()}
}

// Close releases the held slot.
func (g *ArrayGuard) Close() {
	g.lock.Unlock(g.handle)
}
