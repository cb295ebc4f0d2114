// Package hazard implements a hazard-pointer safe-memory-reclamation scheme
// parameterized by an upstream allocator, as used by package msqueue to
// reclaim unlinked nodes without a general garbage collector's help (beyond
// Go's own GC eventually reclaiming whatever this package frees back to the
// allocator).
package hazard

import (
	"fmt"

	"github.com/go-taomp/taomp/padding"
	"github.com/go-taomp/taomp/registry"
)

// Allocator is the upstream allocator a Domain retires pointers back to. It
// mirrors the companion allocate/deallocate methods the original requires
// of its AllocatorTy: value_type plus deallocate(value_type*), with a
// batch-allocate method for the queue's node storage.
type Allocator[T any] interface {
	Allocate(n int) []*T
	Deallocate(p *T)
}

// Domain is a hazard-pointer domain: H global protected-pointer slots
// (slot-to-thread assignment is a convention the client maintains, via
// Window) plus one retire list per thread.
type Domain[T any] struct {
	hps       []padding.Pointer[T]
	retire    []retireList[T]
	alloc     Allocator[T]
	threshold int
}

type retireList[T any] struct {
	items []*T
}

// New builds a Domain for up to threadNum threads sharing totalSlots global
// hazard slots, reclaiming through alloc. retireThreshold, if zero, defaults
// to totalSlots+1, which guarantees that after every scan at least one
// retired pointer was freed. New returns an error if retireThreshold is
// supplied and is less than totalSlots+1, since that invariant is required
// for the amortized O(1) retire bound the rest of this package assumes.
func New[T any](threadNum, totalSlots int, alloc Allocator[T], retireThreshold int) (*Domain[T], error) {
	if threadNum <= 0 || totalSlots <= 0 {
		return nil, fmt.Errorf("hazard: threadNum and totalSlots must be positive")
	}
	if retireThreshold == 0 {
		retireThreshold = totalSlots + 1
	}
	if retireThreshold < totalSlots+1 {
		return nil, fmt.Errorf("hazard: retireThreshold %d must be >= totalSlots+1 (%d)", retireThreshold, totalSlots+1)
	}
	d := &Domain[T]{
		hps:       make([]padding.Pointer[T], totalSlots),
		retire:    make([]retireList[T], threadNum),
		alloc:     alloc,
		threshold: retireThreshold,
	}
	for i := range d.retire {
		d.retire[i].items = make([]*T, 0, retireThreshold)
	}
	return d, nil
}

// Preserve publishes p in global slot i, protecting it from reclamation by
// any subsequent scan. The caller must re-validate afterwards (re-read the
// source pointer it just preserved and confirm it is unchanged) before
// dereferencing p, per the hazard-pointer safety argument in the design.
func (d *Domain[T]) Preserve(i int, p *T) {
	d.hps[i].Store(p)
}

// Get reads global slot i.
func (d *Domain[T]) Get(i int) *T {
	return d.hps[i].Load()
}

// Window is a small view over the contiguous band of global slots a single
// thread owns by convention, checked against the thread's registered
// identity so a misused index panics close to its cause instead of
// corrupting another thread's hazard slots.
type Window[T any] struct {
	d        *Domain[T]
	tid      registry.ThreadID
	start, n int
}

// Window returns the band [tid*slotsPerThread, tid*slotsPerThread+slotsPerThread)
// as a Window, for a Domain whose total slot count is evenly divided among
// threadNum threads.
func (d *Domain[T]) Window(tid registry.ThreadID, slotsPerThread int) Window[T] {
	start := int(tid) * slotsPerThread
	if start+slotsPerThread > len(d.hps) {
		panic("hazard: Window out of range for this Domain's slot count")
	}
	return Window[T]{d: d, tid: tid, start: start, n: slotsPerThread}
}

// Preserve publishes p in this window's local slot index (0-based within
// the window).
func (w Window[T]) Preserve(localIndex int, p *T) {
	if localIndex < 0 || localIndex >= w.n {
		panic(fmt.Sprintf("hazard: slot %d out of range for window of size %d", localIndex, w.n))
	}
	w.d.Preserve(w.start+localIndex, p)
}

// Get reads this window's local slot index.
func (w Window[T]) Get(localIndex int) *T {
	if localIndex < 0 || localIndex >= w.n {
		panic(fmt.Sprintf("hazard: slot %d out of range for window of size %d", localIndex, w.n))
	}
	return w.d.Get(w.start + localIndex)
}

// Retire enqueues p for reclamation on tid's retire list, scanning and
// freeing reclaimable pointers once that list reaches the configured
// threshold.
func (d *Domain[T]) Retire(tid registry.ThreadID, p *T) {
	rl := &d.retire[tid]
	rl.items = append(rl.items, p)
	if len(rl.items) >= d.threshold {
		d.scan(rl)
	}
}

// scan snapshots every global hazard slot, partitions tid's retire list into
// protected and reclaimable pointers, frees the reclaimable ones through the
// allocator, and compacts the list down to the protected subset. The
// default threshold guarantees the protected set can hold at most
// len(d.hps) distinct pointers, so at least one entry is always freed here.
func (d *Domain[T]) scan(rl *retireList[T]) {
	protected := make(map[*T]struct{}, len(d.hps))
	for i := range d.hps {
		if p := d.hps[i].Load(); p != nil {
			protected[p] = struct{}{}
		}
	}
	kept := rl.items[:0]
	for _, p := range rl.items {
		if _, isProtected := protected[p]; isProtected {
			kept = append(kept, p)
		} else {
			d.alloc.Deallocate(p)
		}
	}
	rl.items = kept
}

// ForcedDeallocate unconditionally frees every pointer on tid's retire list
// and clears it. It must only be called when no thread holds a hazard
// pointer to anything on that list, which in practice means only at
// shutdown.
func (d *Domain[T]) ForcedDeallocate(tid registry.ThreadID) {
	rl := &d.retire[tid]
	for _, p := range rl.items {
		d.alloc.Deallocate(p)
	}
	rl.items = rl.items[:0]
}

// RetireListLen returns the current length of tid's retire list, exposed so
// tests can assert the progress property: after every scan, the retire list
// holds strictly fewer than the configured threshold entries.
func (d *Domain[T]) RetireListLen(tid registry.ThreadID) int {
	return len(d.retire[tid].items)
}
