package rt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingOrder(t *testing.T) {
	r := NewRing(3)
	require.Equal(t, 4, r.Cap())

	for i := uint32(0); i < 4; i++ {
		require.True(t, r.Push(ParamChange{ID: i}))
	}
	assert.False(t, r.Push(ParamChange{ID: 99}), "ring should be full")
	assert.Equal(t, uint64(1), r.Dropped())
	assert.Equal(t, 4, r.Len())

	for i := uint32(0); i < 4; i++ {
		c, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, i, c.ID)
	}
	_, ok := r.Pop()
	assert.False(t, ok)
}

func TestRingDrainLimit(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 6; i++ {
		r.Push(ParamChange{ID: uint32(i)})
	}

	var seen []uint32
	n := r.Drain(4, func(c ParamChange) bool {
		seen = append(seen, c.ID)
		return true
	})
	assert.Equal(t, 4, n)
	assert.Equal(t, []uint32{0, 1, 2, 3}, seen)
	assert.Equal(t, 2, r.Len())
}

func TestRingDrainKeepsRefused(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Push(ParamChange{ID: uint32(i)})
	}

	n := r.Drain(r.Cap(), func(c ParamChange) bool { return c.ID < 2 })
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, r.Len())

	c, ok := r.Pop()
	require.True(t, ok)
	assert.Equal(t, uint32(2), c.ID, "refused change stays at the head")
	assert.Zero(t, r.Dropped())
}

func TestRingConcurrentHandOff(t *testing.T) {
	const total = 10000
	r := NewRing(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if r.Push(ParamChange{ID: uint32(i), Value: float64(i)}) {
				i++
			}
		}
	}()

	next := uint32(0)
	for next < total {
		if c, ok := r.Pop(); ok {
			require.Equal(t, next, c.ID)
			require.Equal(t, float64(next), c.Value)
			next++
		}
	}
	wg.Wait()
}
