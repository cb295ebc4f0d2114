package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoneReturnsImmediately(t *testing.T) {
	start := time.Now()
	None{}.Backoff()
	assert.Less(t, time.Since(start), 5*time.Millisecond)
}

func TestExponentialDoublesAndResets(t *testing.T) {
	min := 2 * time.Millisecond
	max := 9 * time.Millisecond
	e := NewExponential(min, max)

	// 2ms -> doubles to 4ms (<=max, kept)
	start := time.Now()
	e.Backoff()
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, min)

	// 4ms -> doubles to 8ms (<=max, kept)
	start = time.Now()
	e.Backoff()
	elapsed = time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 3*time.Millisecond)

	// 8ms -> doubles to 16ms (>max, resets to min)
	start = time.Now()
	e.Backoff()
	elapsed = time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 7*time.Millisecond)

	// next wait should be back down near min, since state reset.
	start = time.Now()
	e.Backoff()
	elapsed = time.Since(start)
	assert.Less(t, elapsed, max)
}

func TestNewExponentialRejectsBadBounds(t *testing.T) {
	assert.Panics(t, func() { NewExponential(0, time.Second) })
	assert.Panics(t, func() { NewExponential(time.Second, time.Millisecond) })
}

func TestFromLibraryEventuallySleeps(t *testing.T) {
	f := NewFromLibrary(time.Millisecond, 5*time.Millisecond)
	slept, done := f.Next()
	require.False(t, done)
	assert.GreaterOrEqual(t, slept, time.Duration(0))
}
