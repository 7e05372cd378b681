package rt

import (
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

type rampSlot struct {
	id       uint32
	used     bool
	dirty    bool
	smoother param.Smoother
}

// Ramps turns queued parameter changes into sample-accurate points. Each
// parameter that has ever changed keeps a slot holding its last value, so
// a later ramp starts where the previous one ended.
type Ramps struct {
	slots    []rampSlot
	overflow atomic.Uint64
}

// NewRamps preallocates slots for up to capacity distinct parameters.
func NewRamps(capacity int) *Ramps {
	r := &Ramps{slots: make([]rampSlot, max(capacity, 1))}
	for i := range r.slots {
		r.slots[i].smoother = *param.NewSmoother(param.LinearSmoothing, 0)
	}
	return r
}

func (r *Ramps) slot(id uint32) *rampSlot {
	free := -1
	for i := range r.slots {
		s := &r.slots[i]
		if s.used {
			if s.id == id {
				return s
			}
		} else if free < 0 {
			free = i
		}
	}
	if free < 0 {
		return nil
	}
	return &r.slots[free]
}

// Apply records c and reports whether it was taken. A ramp starts from
// the slot's current value, or from c.From when the parameter has no slot
// yet. When every slot is taken the change is written straight into
// changes at offset 0, as long as that leaves one queue free per slot;
// otherwise Apply refuses it and the caller keeps it for a later block.
func (r *Ramps) Apply(c ParamChange, changes *vst3.ParameterChanges) bool {
	s := r.slot(c.ID)
	if s == nil {
		if changes.Find(c.ID) == nil && changes.Count() >= int32(changes.Cap()-len(r.slots)) {
			return false
		}
		if !changes.AddPoint(c.ID, 0, c.Value) {
			return false
		}
		r.overflow.Add(1)
		return true
	}
	if !s.used {
		s.used = true
		s.id = c.ID
		s.smoother.Reset(c.From)
	}
	s.dirty = true
	if c.RampFrames <= 0 {
		s.smoother.Reset(c.Value)
		return true
	}
	s.smoother.SetRate(float64(c.RampFrames))
	s.smoother.SetTarget(c.Value)
	return true
}

// Emit writes the points for a block of frames samples and advances every
// ramp past the block. Sample i of the block sees the value reached after
// i ramp steps.
func (r *Ramps) Emit(frames int, changes *vst3.ParameterChanges) {
	if frames <= 0 {
		return
	}
	for i := range r.slots {
		s := &r.slots[i]
		if !s.used {
			continue
		}
		sm := &s.smoother
		switch {
		case sm.IsSmoothing():
			// a ramp that cannot start this block waits for the next
			if !changes.AddPoint(s.id, 0, sm.Current()) {
				continue
			}
			if rem := sm.Remaining(); rem < frames {
				changes.AddPoint(s.id, int32(rem), sm.Target())
				sm.Skip(rem)
				s.dirty = false
			} else {
				changes.AddPoint(s.id, int32(frames-1), sm.Skip(frames-1))
				sm.Skip(1)
				// a ramp ending on the block boundary lands on sample 0
				// of the next block
				s.dirty = !sm.IsSmoothing()
			}
		case s.dirty:
			s.dirty = !changes.AddPoint(s.id, 0, sm.Current())
		}
	}
}

// Active returns the number of parameters still ramping.
func (r *Ramps) Active() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].used && r.slots[i].smoother.IsSmoothing() {
			n++
		}
	}
	return n
}

// Overflow returns the number of changes applied without a slot. It is
// safe to call from any goroutine.
func (r *Ramps) Overflow() uint64 {
	return r.overflow.Load()
}

// Reset forgets every slot.
func (r *Ramps) Reset() {
	for i := range r.slots {
		r.slots[i].used = false
		r.slots[i].dirty = false
		r.slots[i].smoother.Reset(0)
	}
}
