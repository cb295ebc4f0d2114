// Package spinlock implements the simplest mutual-exclusion locks in this
// module: test-and-set, test-and-test-and-set, and a thin wrapper around
// Go's own runtime mutex for benchmark comparison. None provide FIFO
// ordering; all are unfair by construction.
package spinlock

import (
	"sync"
	"sync/atomic"

	"github.com/go-taomp/taomp/backoff"
)

// Locker is the common surface every lock in this module exposes beyond the
// stdlib sync.Locker: a backoff-parameterized Lock, plus TryLock.
type Locker interface {
	Lock(policy backoff.Policy)
	Unlock()
	TryLock() bool
}

// TAS is a test-and-set spin lock: one atomic flag, no waiter identity, no
// fairness. It is ABA-safe by construction since its state is a single bit.
type TAS struct {
	held atomic.Bool
}

// Lock acquires the lock, invoking policy.Backoff between failed attempts.
func (l *TAS) Lock(policy backoff.Policy) {
	for l.held.Swap(true) {
		policy.Backoff()
	}
}

// LockSpin acquires the lock with no backoff between attempts, matching the
// original's zero-argument lock() overload.
func (l *TAS) LockSpin() {
	l.Lock(backoff.None{})
}

// Unlock releases the lock. The caller must hold it.
func (l *TAS) Unlock() {
	l.held.Store(false)
}

// TryLock makes one exchange attempt and reports whether it acquired the
// lock.
func (l *TAS) TryLock() bool {
	return !l.held.Swap(true)
}

// TTAS is a test-and-test-and-set spin lock. Before each exchange attempt it
// spins on a plain load until the lock looks free, which avoids forcing a
// cache-line invalidation on every contending thread's exchange. TTAS should
// be preferred over TAS whenever more than a couple of goroutines may
// contend.
type TTAS struct {
	held atomic.Bool
}

// Lock acquires the lock, invoking policy.Backoff on both the inner
// test-only spin and the outer exchange-retry loop.
func (l *TTAS) Lock(policy backoff.Policy) {
	for {
		for l.held.Load() {
			policy.Backoff()
		}
		if !l.held.Swap(true) {
			return
		}
		policy.Backoff()
	}
}

// LockSpin acquires the lock with no backoff between attempts.
func (l *TTAS) LockSpin() {
	l.Lock(backoff.None{})
}

// Unlock releases the lock. The caller must hold it.
func (l *TTAS) Unlock() {
	l.held.Store(false)
}

// TryLock makes one exchange attempt and reports whether it acquired the
// lock.
func (l *TTAS) TryLock() bool {
	return !l.held.Swap(true)
}

// Native wraps sync.Mutex behind the same Lock/Unlock/TryLock surface as
// this package's spin locks. It exists only so the benchmarks in
// cmd/taompbench can compare a true spin lock against the Go runtime's own
// mutex, which already performs a brief adaptive spin before parking the
// calling goroutine.
type Native struct {
	mu sync.Mutex
}

// Lock acquires the underlying mutex. policy is accepted for interface
// compatibility but ignored: the runtime mutex has its own backoff.
func (l *Native) Lock(_ backoff.Policy) {
	l.mu.Lock()
}

// Unlock releases the underlying mutex.
func (l *Native) Unlock() {
	l.mu.Unlock()
}

// TryLock attempts to acquire the underlying mutex without blocking.
func (l *Native) TryLock() bool {
	return l.mu.TryLock()
}
