package padding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundUpPow2(t *testing.T) {
	cases := map[uint32]uint32{
		0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 16: 16, 17: 32, 1000: 1024,
	}
	for in, want := range cases {
		assert.Equal(t, want, RoundUpPow2(in), "RoundUpPow2(%d)", in)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	var b Bool
	assert.False(t, b.Load())
	b.Store(true)
	assert.True(t, b.Load())
	assert.True(t, b.CompareAndSwap(true, false))
	assert.False(t, b.Load())
}

func TestPointerRoundTrip(t *testing.T) {
	var p Pointer[int]
	assert.Nil(t, p.Load())
	v := 42
	p.Store(&v)
	assert.Equal(t, &v, p.Load())
}
