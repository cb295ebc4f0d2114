package linpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerBracketsMonotonically(t *testing.T) {
	tr := NewTracker(2)
	tr.Before(0)
	time.Sleep(time.Millisecond)
	tr.After(0)
	s := tr.Last(0)
	assert.True(t, s.Before.Before(s.After) || s.Before.Equal(s.After))
}

func TestStampOverlaps(t *testing.T) {
	now := time.Now()
	a := Stamp{Before: now, After: now.Add(10 * time.Millisecond)}
	b := Stamp{Before: now.Add(5 * time.Millisecond), After: now.Add(15 * time.Millisecond)}
	c := Stamp{Before: now.Add(20 * time.Millisecond), After: now.Add(30 * time.Millisecond)}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
}

func TestNoOpRecordsNothing(t *testing.T) {
	var n NoOp
	n.Before(0)
	n.After(0)
	assert.Equal(t, Stamp{}, n.Last(0))
}
