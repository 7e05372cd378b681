package host

import (
	"time"

	"github.com/justyntemme/vst3host/pkg/observability"
)

// InstanceInfo is a snapshot of one instance.
type InstanceInfo struct {
	Handle         Handle       `json:"handle"`
	Path           string       `json:"path"`
	Class          string       `json:"class"`
	ClassID        string       `json:"class_id"`
	Vendor         string       `json:"vendor,omitempty"`
	Session        string       `json:"session"`
	LoadedAt       time.Time    `json:"loaded_at"`
	State          State        `json:"state"`
	Capabilities   Capabilities `json:"capabilities"`
	Setup          *Setup       `json:"setup,omitempty"`
	InputChannels  int          `json:"input_channels"`
	OutputChannels int          `json:"output_channels"`
	Latency        uint32       `json:"latency_samples"`
	Tail           uint32       `json:"tail_samples"`
	QueuedParams   int          `json:"queued_params"`
	DroppedParams  uint64       `json:"dropped_params"`
	// UnslottedParams counts changes applied without a ramp slot since
	// the last setup. They take effect at the start of a block.
	UnslottedParams uint64 `json:"unslotted_params"`
}

// Info describes the instance behind handle.
func (h *Host) Info(handle Handle) (InstanceInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup("info", handle)
	if err != nil {
		return InstanceInfo{}, err
	}
	info := InstanceInfo{
		Handle:        inst.handle,
		Path:          inst.path,
		Class:         inst.class.Name,
		ClassID:       inst.class.ID.String(),
		Vendor:        inst.vendor,
		Session:       inst.session.String(),
		LoadedAt:      inst.loaded,
		State:         inst.State(),
		Capabilities:  inst.caps,
		QueuedParams:  inst.ring.Len(),
		DroppedParams: inst.ring.Dropped(),
	}
	if inst.engine != nil {
		s := inst.setup
		info.Setup = &s
		info.InputChannels = inst.layout.InputChannels()
		info.OutputChannels = inst.layout.OutputChannels()
		info.Latency = inst.processor.LatencySamples()
		info.Tail = inst.processor.TailSamples()
		info.UnslottedParams = inst.engine.ramps.Overflow()
	}
	return info, nil
}

// Handles returns the live handles in ascending order.
func (h *Host) Handles() []Handle {
	return h.registry.Handles()
}

// Inventory adapts the host for the admin server.
func (h *Host) Inventory() observability.Inventory {
	return inventory{h}
}

type inventory struct {
	h *Host
}

func (i inventory) ListInstances() interface{} {
	out := make([]InstanceInfo, 0)
	for _, handle := range i.h.Handles() {
		if info, err := i.h.Info(handle); err == nil {
			out = append(out, info)
		}
	}
	return out
}

func (i inventory) DescribeInstance(handle uint32) (interface{}, error) {
	return i.h.Info(Handle(handle))
}

func (i inventory) InstanceParameters(handle uint32) (interface{}, error) {
	return i.h.Parameters(Handle(handle))
}
