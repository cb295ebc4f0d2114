package spinlock

import "github.com/go-taomp/taomp/backoff"

// noCopy may be embedded into structs that must not be copied after first
// use; go vet's copylocks check flags any accidental copy of a value that
// embeds it. This is the idiomatic stdlib substitute for C++'s deleted copy
// and move constructors.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Guard acquires a Locker on construction and releases it on Close,
// standing in for the scoped RAII guard every lock in this module composes
// with: Go has no destructors, so defer guard.Close() is the idiomatic
// substitute.
type Guard struct {
	_    noCopy
	lock Locker
}

// NewGuard acquires lock using policy and returns a Guard that releases it
// on Close.
func NewGuard(lock Locker, policy backoff.Policy) *Guard {
	lock.Lock(policy)
	return &Guard{lock: lock}
}

// Close releases the held lock. Close is idempotent-unsafe by design,
// exactly like calling unlock twice on an unheld lock in the original: a
// second Close is a contract violation, not a defined no-op.
func (g *Guard) Close() {
	g.lock.Unlock()
}
