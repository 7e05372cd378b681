// Package rt holds the pieces of the processing path that must not lock
// or allocate: the parameter hand-off ring, the block gate, the buffer
// pool and the ramp scheduler.
package rt

import (
	"sync/atomic"
)

// ParamChange is one parameter update travelling to the audio thread.
type ParamChange struct {
	ID    uint32
	Value float64
	// From is the value the control side last saw, used when a ramp
	// starts on a parameter the audio side has never touched.
	From float64
	// RampFrames is the ramp length; zero applies the value at the start
	// of the next block.
	RampFrames int32
}

// Ring is a lock-free single-producer single-consumer queue of parameter
// changes. Push is called from exactly one goroutine at a time and Pop
// from exactly one other.
type Ring struct {
	slots []ParamChange
	mask  uint64
	head  atomic.Uint64 // next slot to read
	tail  atomic.Uint64 // next slot to write

	dropped atomic.Uint64
}

// NewRing creates a ring holding at least capacity changes.
func NewRing(capacity int) *Ring {
	size := nextPowerOf2(uint64(max(capacity, 2)))
	return &Ring{
		slots: make([]ParamChange, size),
		mask:  size - 1,
	}
}

// Cap returns the number of changes the ring can hold.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Len returns the number of queued changes.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Push enqueues c. It returns false and counts a drop when the ring is full.
func (r *Ring) Push(c ParamChange) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.slots)) {
		r.dropped.Add(1)
		return false
	}
	r.slots[tail&r.mask] = c
	r.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest change.
func (r *Ring) Pop() (ParamChange, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return ParamChange{}, false
	}
	c := r.slots[head&r.mask]
	r.head.Store(head + 1)
	return c, true
}

// Drain hands at most limit changes to fn and returns how many it took.
// A change fn refuses stays at the head of the ring and ends the drain.
func (r *Ring) Drain(limit int, fn func(ParamChange) bool) int {
	n := 0
	for n < limit {
		head := r.head.Load()
		if head == r.tail.Load() {
			break
		}
		if !fn(r.slots[head&r.mask]) {
			break
		}
		r.head.Store(head + 1)
		n++
	}
	return n
}

// Dropped returns the number of changes rejected because the ring was full.
func (r *Ring) Dropped() uint64 {
	return r.dropped.Load()
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
