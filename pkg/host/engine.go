package host

import (
	"time"

	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/observability"
	"github.com/justyntemme/vst3host/pkg/rt"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// pointsPerQueue bounds the points one parameter gets in a block: a ramp
// writes at most two, an immediate change one at offset 0.
const pointsPerQueue = 4

// engine is everything one block needs, allocated at setup.
type engine struct {
	processor vst3.AudioProcessor
	pool      *rt.BufferPool
	ramps     *rt.Ramps
	ring      *rt.Ring
	changes   *vst3.ParameterChanges
	data      vst3.ProcessData
	context   vst3.ProcessContext
	metrics   *observability.Metrics
	apply     func(rt.ParamChange) bool
}

// newEngine sizes the change set at one queue per ramp slot plus as many
// again for changes that found no slot.
func newEngine(proc vst3.AudioProcessor, layout bus.Layout, setup Setup, ring *rt.Ring, rampSlots int, metrics *observability.Metrics) (*engine, error) {
	e := &engine{
		processor: proc,
		pool:      rt.NewBufferPool(layout, setup.MaxBlockSize),
		ramps:     rt.NewRamps(rampSlots),
		ring:      ring,
		changes:   vst3.NewParameterChanges(2*max(rampSlots, 1), pointsPerQueue),
		metrics:   metrics,
	}
	e.apply = func(c rt.ParamChange) bool {
		return e.ramps.Apply(c, e.changes)
	}

	mode := vst3.ProcessModeOffline
	if setup.Realtime {
		mode = vst3.ProcessModeRealtime
	}
	e.context = vst3.ProcessContext{SampleRate: setup.SampleRate}
	e.data = vst3.ProcessData{
		ProcessMode:           mode,
		SymbolicSampleSize:    vst3.Sample32,
		Inputs:                e.pool.Inputs(),
		Outputs:               e.pool.Outputs(),
		InputParameterChanges: e.changes,
		Context:               &e.context,
	}
	if p, ok := proc.(vst3.Preparer); ok {
		if err := p.PrepareProcessing(&e.data); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// run processes frames samples already in the pool. It does not allocate.
// Changes the block has no room for stay in the ring for the next one.
func (e *engine) run(frames int) error {
	e.changes.Clear()
	e.ring.Drain(e.ring.Cap(), e.apply)
	e.ramps.Emit(frames, e.changes)

	e.data.NumSamples = int32(frames)
	start := time.Now()
	err := e.processor.Process(&e.data)
	if e.metrics != nil {
		e.metrics.ObserveBlock(time.Since(start))
	}

	e.context.ProjectTimeSamples += int64(frames)
	e.context.ContinuousTimeSamples += int64(frames)
	return err
}

// reset forgets ramps and transport, for reactivation.
func (e *engine) reset() {
	e.ramps.Reset()
	e.context.ProjectTimeSamples = 0
	e.context.ContinuousTimeSamples = 0
}
