package host

import (
	"errors"
	"fmt"

	"github.com/justyntemme/vst3host/pkg/hosterr"
	"github.com/justyntemme/vst3host/pkg/rt"
)

// Process runs numFrames samples of inputs through the instance into
// outputs. Channels are flattened across buses in bus order. Calls longer
// than the configured block size are split into blocks.
//
// Process takes no locks and does not allocate on success.
func (h *Host) Process(handle Handle, inputs, outputs [][]float32, numFrames int) error {
	const op = "process"
	inst, e, err := h.enter(op, handle)
	if err != nil {
		return err
	}
	defer inst.gate.Exit()

	if err := checkBuffers(inputs, inst.layout.InputChannels(), numFrames); err != nil {
		return h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindBuffer, Handle: uint32(handle), Err: err})
	}
	if err := checkBuffers(outputs, inst.layout.OutputChannels(), numFrames); err != nil {
		return h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindBuffer, Handle: uint32(handle), Err: err})
	}

	block := e.pool.MaxFrames()
	for off := 0; off < numFrames; off += block {
		n := min(block, numFrames-off)
		e.pool.LoadInputs(inputs, off, n)
		e.pool.ClearOutputs(n)
		if err := e.run(n); err != nil {
			return h.fail(op, hosterr.New(op, hosterr.KindInternal, err).WithHandle(uint32(handle)))
		}
		e.pool.StoreOutputs(outputs, off, n)
	}
	return nil
}

// ProcessInPlace runs one block on the instance's own buffers, as
// returned by Buffers, skipping the copies Process makes.
func (h *Host) ProcessInPlace(handle Handle, numFrames int) error {
	const op = "processInPlace"
	inst, e, err := h.enter(op, handle)
	if err != nil {
		return err
	}
	defer inst.gate.Exit()

	if numFrames < 0 || numFrames > e.pool.MaxFrames() {
		return h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindBuffer, Handle: uint32(handle),
			Err: fmt.Errorf("%d frames outside 0..%d", numFrames, e.pool.MaxFrames())})
	}
	if numFrames == 0 {
		return nil
	}
	if err := e.run(numFrames); err != nil {
		return h.fail(op, hosterr.New(op, hosterr.KindInternal, err).WithHandle(uint32(handle)))
	}
	return nil
}

// Buffers returns the instance's input and output channels. They stay
// valid until the next Initialize or unload, and must only be touched by
// the goroutine that processes the instance.
func (h *Host) Buffers(handle Handle) (inputs, outputs [][]float32, err error) {
	const op = "buffers"
	inst, err := h.lookup(op, handle)
	if err != nil {
		return nil, nil, err
	}
	h.mu.Lock()
	e := inst.engine
	h.mu.Unlock()
	if e == nil {
		return nil, nil, h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindNotActive, Handle: uint32(handle), Err: errNotConfigured})
	}
	return e.pool.InputChannels(), e.pool.OutputChannels(), nil
}

// enter looks handle up and claims its gate. On success the caller must
// call inst.gate.Exit.
func (h *Host) enter(op string, handle Handle) (*Instance, *engine, error) {
	inst, err := h.lookup(op, handle)
	if err != nil {
		return nil, nil, err
	}
	if inst.State() != StateActive {
		return nil, nil, h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindNotActive, Handle: uint32(handle)})
	}
	if err := inst.gate.Enter(); err != nil {
		kind := hosterr.KindNotActive
		if errors.Is(err, rt.ErrGateBusy) {
			kind = hosterr.KindBusy
		}
		return nil, nil, h.fail(op, &hosterr.Error{Op: op, Kind: kind, Handle: uint32(handle)})
	}
	// state may have changed before the gate closed
	if inst.State() != StateActive || inst.engine == nil {
		inst.gate.Exit()
		return nil, nil, h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindNotActive, Handle: uint32(handle)})
	}
	return inst, inst.engine, nil
}

func checkBuffers(chans [][]float32, want, frames int) error {
	if frames < 0 {
		return fmt.Errorf("negative frame count %d", frames)
	}
	if len(chans) < want {
		return fmt.Errorf("got %d channels, need %d", len(chans), want)
	}
	for i := 0; i < want; i++ {
		if len(chans[i]) < frames {
			return fmt.Errorf("channel %d holds %d frames, need %d", i, len(chans[i]), frames)
		}
	}
	return nil
}
