package host

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/rt"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// SetParameter sets parameter id to the normalized value v. Without a
// controller it does nothing. When the instance is Active the change is
// also queued for the audio thread, ramped over the host's RampMs.
func (h *Host) SetParameter(handle Handle, id uint32, v float64) error {
	return h.setParameter("setParameter", handle, id, v, -1)
}

// AutomateParameter is SetParameter with an explicit ramp length in
// frames. Zero applies the value at the start of the next block.
func (h *Host) AutomateParameter(handle Handle, id uint32, v float64, rampFrames int) error {
	if rampFrames < 0 {
		rampFrames = 0
	}
	return h.setParameter("automateParameter", handle, id, v, rampFrames)
}

func (h *Host) setParameter(op string, handle Handle, id uint32, v float64, rampFrames int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup(op, handle)
	if err != nil {
		return err
	}
	if inst.controller == nil {
		return nil
	}

	v = param.Clamp(v)
	from := inst.controller.ParamNormalized(id)
	// The plugin's result is not surfaced; an unknown id is the plugin's
	// business.
	if err := inst.controller.SetParamNormalized(id, v); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"handle": handle, "param": id}).Debug("setParamNormalized rejected")
	}

	if inst.State() != StateActive {
		return nil
	}
	if rampFrames < 0 {
		rampFrames = int(math.Round(h.opts.RampMs * inst.setup.SampleRate / 1000))
	}
	change := rt.ParamChange{ID: id, Value: v, From: from, RampFrames: int32(min(rampFrames, math.MaxInt32))}
	if !inst.ring.Push(change) && h.metrics != nil {
		h.metrics.ParamDropsTotal.Inc()
	}
	return nil
}

// GetParameter returns the normalized value of parameter id, or 0 when
// the plugin has no controller.
func (h *Host) GetParameter(handle Handle, id uint32) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup("getParameter", handle)
	if err != nil {
		return 0, err
	}
	if inst.controller == nil {
		return 0, nil
	}
	return inst.controller.ParamNormalized(id), nil
}

// Parameters describes every parameter of the instance. It is empty
// without a controller.
func (h *Host) Parameters(handle Handle) ([]ParameterInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup("parameters", handle)
	if err != nil {
		return nil, err
	}
	if inst.controller == nil {
		return []ParameterInfo{}, nil
	}

	n := inst.controller.ParameterCount()
	out := make([]ParameterInfo, 0, n)
	for i := int32(0); i < n; i++ {
		info, err := inst.controller.ParameterInfo(i)
		if err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{"handle": handle, "index": i}).Debug("getParameterInfo failed")
			continue
		}
		value := inst.controller.ParamNormalized(info.ID)
		out = append(out, ParameterInfo{
			ID:         info.ID,
			Title:      info.Title,
			ShortTitle: info.ShortTitle,
			Units:      info.Units,
			StepCount:  info.StepCount,
			Default:    info.DefaultValue,
			Value:      value,
			Plain:      inst.controller.NormalizedToPlain(info.ID, value),
			Automate:   info.Flags&vst3.ParameterCanAutomate != 0,
			ReadOnly:   info.Flags&vst3.ParameterIsReadOnly != 0,
			Bypass:     info.Flags&vst3.ParameterIsBypass != 0,
		})
	}
	return out, nil
}

// ParameterInfo describes one parameter with its current value.
type ParameterInfo struct {
	ID         uint32  `json:"id"`
	Title      string  `json:"title"`
	ShortTitle string  `json:"short_title,omitempty"`
	Units      string  `json:"units,omitempty"`
	StepCount  int32   `json:"step_count"`
	Default    float64 `json:"default"`
	Value      float64 `json:"value"`
	Plain      float64 `json:"plain"`
	Automate   bool    `json:"automate"`
	ReadOnly   bool    `json:"read_only,omitempty"`
	Bypass     bool    `json:"bypass,omitempty"`
}
