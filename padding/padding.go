// Package padding provides cache-line-aligned wrappers around the atomic
// primitives the lock and queue packages share state through, so that
// independently written flags never fall on the same cache line and cause
// false sharing under contention.
package padding

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Bool is a cache-line-padded atomic boolean. It is the building block for
// the array lock's slot ring and the CLH lock's per-node flag.
type Bool struct {
	v atomic.Bool
	_ cpu.CacheLinePad
}

// Load reads the flag.
func (b *Bool) Load() bool { return b.v.Load() }

// Store writes the flag.
func (b *Bool) Store(val bool) { b.v.Store(val) }

// CompareAndSwap performs a CAS on the flag.
func (b *Bool) CompareAndSwap(old, new bool) bool { return b.v.CompareAndSwap(old, new) }

// Swap exchanges the flag and returns its previous value.
func (b *Bool) Swap(val bool) bool { return b.v.Swap(val) }

// Uint64 is a cache-line-padded atomic uint64, used for ticket counters and
// other global words that are hammered by every contending thread.
type Uint64 struct {
	v atomic.Uint64
	_ cpu.CacheLinePad
}

// Load reads the counter.
func (u *Uint64) Load() uint64 { return u.v.Load() }

// Add atomically adds delta and returns the new value.
func (u *Uint64) Add(delta uint64) uint64 { return u.v.Add(delta) }

// Pointer is a cache-line-padded generic atomic pointer, used for per-thread
// hazard-pointer slots and lock-free queue links that are read far more
// often by other threads than they are written by their owner.
type Pointer[T any] struct {
	v atomic.Pointer[T]
	_ cpu.CacheLinePad
}

// Load reads the pointer.
func (p *Pointer[T]) Load() *T { return p.v.Load() }

// Store writes the pointer.
func (p *Pointer[T]) Store(val *T) { p.v.Store(val) }

// CompareAndSwap performs a CAS on the pointer.
func (p *Pointer[T]) CompareAndSwap(old, new *T) bool { return p.v.CompareAndSwap(old, new) }

// Swap exchanges the pointer and returns its previous value.
func (p *Pointer[T]) Swap(val *T) *T { return p.v.Swap(val) }

// MaskLeadingZero returns n with every bit below its highest set bit also
// set: one less than the smallest power of two strictly greater than n (so
// 4 maps to 7, 5 maps to 7, and 0 maps to 0). RoundUpPow2 builds on it to
// size the array lock's ring, whose ticket mask is that size minus one.
func MaskLeadingZero(n uint32) uint32 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n
}

// RoundUpPow2 returns the smallest power of two that is >= n, or 1 if n is 0.
func RoundUpPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	return MaskLeadingZero(n-1) + 1
}
