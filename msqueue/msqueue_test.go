package msqueue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-taomp/taomp/registry"
)

func TestEmptyDequeueSequence(t *testing.T) {
	q := New[int](1)
	reg := registry.New(1)
	tid := reg.Join()

	q.Enqueue(tid, 1)
	v, ok := q.Dequeue(tid)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = q.Dequeue(tid)
	assert.False(t, ok)
}

func TestSingleThreadedFIFOOrder(t *testing.T) {
	q := New[int](1)
	reg := registry.New(1)
	tid := reg.Join()

	for i := 0; i < 100; i++ {
		q.Enqueue(tid, i)
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Dequeue(tid)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Dequeue(tid)
	assert.False(t, ok)
}

// TestConservation exercises scenario 5 from the testable-properties
// section at reduced scale: P threads each performing a mix of enqueue and
// dequeue; the multiset of enqueued values must equal dequeued values plus
// whatever remains in the queue at the end.
func TestConservation(t *testing.T) {
	const threadNum = 8
	const opsPerThread = 2000
	// threadNum workers plus one extra slot for the drain-phase thread below.
	q := New[int](threadNum + 1)
	reg := registry.New(threadNum + 1)

	var mu sync.Mutex
	var enqueued, dequeued []int

	var wg sync.WaitGroup
	wg.Add(threadNum)
	for w := 0; w < threadNum; w++ {
		go func(w int) {
			defer wg.Done()
			tid := reg.Join()
			var localEnq, localDeq []int
			for i := 0; i < opsPerThread; i++ {
				if i%2 == 0 {
					v := (i << 8) | w
					q.Enqueue(tid, v)
					localEnq = append(localEnq, v)
				} else {
					if v, ok := q.Dequeue(tid); ok {
						localDeq = append(localDeq, v)
					}
				}
			}
			mu.Lock()
			enqueued = append(enqueued, localEnq...)
			dequeued = append(dequeued, localDeq...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()

	tid := reg.Join()
	var drained []int
	for {
		v, ok := q.Dequeue(tid)
		if !ok {
			break
		}
		drained = append(drained, v)
	}

	got := append(append([]int{}, dequeued...), drained...)
	sort.Ints(enqueued)
	sort.Ints(got)
	assert.Equal(t, enqueued, got)
}

// TestLinearizationStampsBracketEachEnqueue exercises the optional
// instrumentation mixin under concurrent enqueues: after every Enqueue the
// caller's stamp has both ends recorded and its after-timestamp is not
// earlier than its before-timestamp.
func TestLinearizationStampsBracketEachEnqueue(t *testing.T) {
	const threadNum = 4
	q := New[int](threadNum, WithLinearization())
	reg := registry.New(threadNum)

	var wg sync.WaitGroup
	wg.Add(threadNum)
	for w := 0; w < threadNum; w++ {
		go func(w int) {
			defer wg.Done()
			tid := reg.Join()
			for i := 0; i < 50; i++ {
				q.Enqueue(tid, (i<<8)|w)
				stamp := q.LinearizationStamp(tid)
				assert.False(t, stamp.Before.IsZero())
				assert.False(t, stamp.After.IsZero())
				assert.True(t, !stamp.After.Before(stamp.Before))
			}
		}(w)
	}
	wg.Wait()
}

func TestWithoutLinearizationStampsStayZero(t *testing.T) {
	q := New[int](1)
	reg := registry.New(1)
	tid := reg.Join()
	q.Enqueue(tid, 1)
	stamp := q.LinearizationStamp(tid)
	assert.True(t, stamp.Before.IsZero())
	assert.True(t, stamp.After.IsZero())
}
