package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-taomp/taomp/backoff"
)

// counterUnderLock runs p goroutines each performing n increments of a
// shared counter protected by lock, and returns the final value. This is
// the central mutual-exclusion assertion from the testable-properties
// section: for all interleavings the final counter must equal p*n.
func counterUnderLock(lock Locker, p, n int) int {
	var counter int
	var wg sync.WaitGroup
	wg.Add(p)
	for i := 0; i < p; i++ {
		go func() {
			defer wg.Done()
			policy := backoff.NewExponential(1, 64)
			for j := 0; j < n; j++ {
				lock.Lock(policy)
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	return counter
}

func TestTASMutualExclusion(t *testing.T) {
	const p, n = 4, 2000
	got := counterUnderLock(&TAS{}, p, n)
	assert.Equal(t, p*n, got)
}

func TestTTASMutualExclusion(t *testing.T) {
	const p, n = 8, 2000
	got := counterUnderLock(&TTAS{}, p, n)
	assert.Equal(t, p*n, got)
}

func TestNativeMutualExclusion(t *testing.T) {
	const p, n = 4, 2000
	got := counterUnderLock(&Native{}, p, n)
	assert.Equal(t, p*n, got)
}

func TestTryLockFailsWhileHeld(t *testing.T) {
	var l TAS
	require.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.True(t, l.TryLock())
}

func TestGuardReleasesOnClose(t *testing.T) {
	l := &TAS{}
	g := NewGuard(l, backoff.None{})
	assert.False(t, l.TryLock())
	g.Close()
	assert.True(t, l.TryLock())
}
