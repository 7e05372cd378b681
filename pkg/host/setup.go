package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/hosterr"
	"github.com/justyntemme/vst3host/pkg/observability"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

var errNotConfigured = errors.New("instance has no processing setup")

// Initialize configures the instance for sampleRate and maxBlockSize,
// activates it and starts processing. A second call follows the host's
// SetupPolicy. When the plugin rejects a new setup the instance keeps its
// previous setup and state.
func (h *Host) Initialize(ctx context.Context, handle Handle, sampleRate float64, maxBlockSize int) (err error) {
	const op = "initialize"
	ctx, span := h.tracer.Start(ctx, "host.Initialize", trace.WithAttributes(
		attribute.Int64("handle", int64(handle)),
		attribute.Float64("sample_rate", sampleRate),
		attribute.Int("max_block_size", maxBlockSize),
	))
	defer func() { observability.EndSpan(span, err) }()

	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup(op, handle)
	if err != nil {
		return err
	}
	if sampleRate <= 0 || maxBlockSize <= 0 || maxBlockSize > MaxBlockSize {
		return h.fail(op, hosterr.NewSetupError(op, uint32(handle),
			fmt.Errorf("invalid sample rate %g or block size %d", sampleRate, maxBlockSize)))
	}
	if inst.State() != StateCreated && h.opts.SetupPolicy == PolicyReject {
		return h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindRepeatedSetup, Handle: uint32(handle)})
	}

	if err := inst.gate.Close(ctx); err != nil {
		return h.fail(op, hosterr.New(op, hosterr.KindBusy, err).WithHandle(uint32(handle)))
	}
	defer inst.gate.Open()

	prev := inst.State()
	if prev != StateCreated {
		h.stop(inst)
		h.deactivate(inst)
	}
	if err := h.configure(inst, sampleRate, maxBlockSize); err != nil {
		// the previous engine is untouched; bring it back up
		if prev == StateActive {
			if rerr := h.start(inst); rerr != nil {
				h.log.WithError(rerr).WithField("handle", handle).Warn("Failed to restart previous setup")
			}
		}
		return h.fail(op, hosterr.NewSetupError(op, uint32(handle), err))
	}
	if err := h.start(inst); err != nil {
		return h.fail(op, hosterr.NewSetupError(op, uint32(handle), err))
	}

	h.log.WithFields(logrus.Fields{
		"handle":         handle,
		"sample_rate":    sampleRate,
		"max_block_size": maxBlockSize,
		"inputs":         inst.layout.InputChannels(),
		"outputs":        inst.layout.OutputChannels(),
	}).Info("Plugin active")
	return nil
}

// configure runs setupProcessing and builds the engine. The instance
// becomes Configured.
func (h *Host) configure(inst *Instance, sampleRate float64, maxBlockSize int) error {
	mode := vst3.ProcessModeRealtime
	if h.opts.Offline {
		mode = vst3.ProcessModeOffline
	}
	setup := vst3.ProcessSetup{
		ProcessMode:        mode,
		SymbolicSampleSize: vst3.Sample32,
		MaxSamplesPerBlock: int32(maxBlockSize),
		SampleRate:         sampleRate,
	}
	if err := setup.Validate(); err != nil {
		return err
	}
	if err := inst.processor.CanProcessSampleSize(vst3.Sample32); err != nil {
		return fmt.Errorf("32-bit processing: %w", err)
	}
	if err := inst.processor.SetupProcessing(setup); err != nil {
		return fmt.Errorf("setupProcessing: %w", err)
	}

	layout, err := bus.ReadLayout(inst.component)
	if err != nil {
		return err
	}
	h.activateBuses(inst, layout)

	s := Setup{SampleRate: sampleRate, MaxBlockSize: maxBlockSize, Realtime: !h.opts.Offline}
	e, err := newEngine(inst.processor, layout, s, inst.ring, h.opts.RampSlots, h.metrics)
	if err != nil {
		return err
	}
	inst.setup = s
	inst.layout = layout
	inst.engine = e
	inst.setState(StateConfigured)
	return nil
}

func (h *Host) activateBuses(inst *Instance, layout bus.Layout) {
	for dir, counts := range map[vst3.BusDirection][]int32{
		vst3.BusDirectionInput:  layout.Inputs,
		vst3.BusDirectionOutput: layout.Outputs,
	} {
		for i := range counts {
			if err := inst.component.ActivateBus(vst3.MediaTypeAudio, dir, int32(i), true); err != nil {
				h.log.WithError(err).WithFields(logrus.Fields{"handle": inst.handle, "bus": i}).Debug("activateBus failed")
			}
		}
	}
}

// start activates a Configured instance and starts processing. On failure
// the component is left inactive and the instance Configured.
func (h *Host) start(inst *Instance) error {
	if err := h.activate(inst); err != nil {
		return err
	}
	if err := inst.processor.SetProcessing(true); err != nil {
		h.deactivate(inst)
		return fmt.Errorf("setProcessing: %w", err)
	}
	inst.setState(StateActive)
	return nil
}

func (h *Host) activate(inst *Instance) error {
	if inst.componentActive {
		return nil
	}
	if inst.engine == nil {
		return errNotConfigured
	}
	if err := inst.component.SetActive(true); err != nil {
		return fmt.Errorf("setActive: %w", err)
	}
	inst.engine.reset()
	inst.componentActive = true
	return nil
}

// stop leaves Active for Configured. The gate must be closed.
func (h *Host) stop(inst *Instance) {
	if inst.State() != StateActive {
		return
	}
	if err := inst.processor.SetProcessing(false); err != nil {
		h.log.WithError(err).WithField("handle", inst.handle).Debug("setProcessing(false) failed")
	}
	inst.setState(StateConfigured)
}

func (h *Host) deactivate(inst *Instance) {
	h.stop(inst)
	if !inst.componentActive {
		return
	}
	if err := inst.component.SetActive(false); err != nil {
		h.log.WithError(err).WithField("handle", inst.handle).Debug("setActive(false) failed")
	}
	inst.componentActive = false
}

// lifecycle runs fn on handle with the gate closed.
func (h *Host) lifecycle(ctx context.Context, op string, handle Handle, fn func(*Instance) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup(op, handle)
	if err != nil {
		return err
	}
	if inst.State() == StateCreated {
		return h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindNotActive, Handle: uint32(handle), Err: errNotConfigured})
	}
	if err := inst.gate.Close(ctx); err != nil {
		return h.fail(op, hosterr.New(op, hosterr.KindBusy, err).WithHandle(uint32(handle)))
	}
	defer inst.gate.Open()
	if err := fn(inst); err != nil {
		return h.fail(op, hosterr.New(op, hosterr.KindInternal, err).WithHandle(uint32(handle)))
	}
	return nil
}

// Activate calls setActive(true) on a Configured instance.
func (h *Host) Activate(ctx context.Context, handle Handle) error {
	return h.lifecycle(ctx, "activate", handle, h.activate)
}

// Deactivate stops processing if needed and calls setActive(false).
func (h *Host) Deactivate(ctx context.Context, handle Handle) error {
	return h.lifecycle(ctx, "deactivate", handle, func(inst *Instance) error {
		h.deactivate(inst)
		return nil
	})
}

// StartProcessing moves a Configured instance to Active, activating it
// first when needed.
func (h *Host) StartProcessing(ctx context.Context, handle Handle) error {
	return h.lifecycle(ctx, "startProcessing", handle, func(inst *Instance) error {
		if inst.State() == StateActive {
			return nil
		}
		return h.start(inst)
	})
}

// StopProcessing moves an Active instance back to Configured.
func (h *Host) StopProcessing(ctx context.Context, handle Handle) error {
	return h.lifecycle(ctx, "stopProcessing", handle, func(inst *Instance) error {
		h.stop(inst)
		return nil
	})
}
