package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinIsDenseAndUnique(t *testing.T) {
	const n = 64
	r := New(n)
	seen := make([]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := r.Join()
			mu.Lock()
			defer mu.Unlock()
			require.False(t, seen[id], "duplicate ThreadID %d", id)
			seen[id] = true
		}()
	}
	wg.Wait()
	for i, s := range seen {
		assert.True(t, s, "id %d never assigned", i)
	}
}

func TestJoinPanicsWhenExhausted(t *testing.T) {
	r := New(1)
	r.Join()
	assert.Panics(t, func() { r.Join() })
}

func TestResetRequiresQuiescence(t *testing.T) {
	r := New(2)
	id := r.Join()
	assert.Panics(t, func() { r.Reset() })
	r.Leave()
	assert.NotPanics(t, func() { r.Reset() })
	_ = id
}
