package builtin

import (
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/framework/process"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Limits a builtin processor accepts in SetupProcessing.
const (
	MinSampleRate = 8000.0
	MaxSampleRate = 384000.0
	MaxBlockSize  = 8192
)

// Kernel is the DSP part of a builtin plugin.
type Kernel interface {
	// Setup allocates state for a sample rate and block size. It runs on
	// the control thread.
	Setup(sampleRate float64, maxBlockSize int)
	// Reset clears state on deactivation.
	Reset()
	// Process renders one block - no allocations.
	Process(ctx *process.Context)
}

// Base is a single-object plugin: component, processor and, optionally,
// controller over one parameter registry.
type Base struct {
	buses      *bus.Configuration
	params     *param.Registry
	kernel     Kernel
	controller bool

	initialized bool
	configured  bool
	setup       vst3.ProcessSetup
	ctx         *process.Context

	active     atomic.Bool
	processing atomic.Bool
}

// NewBase creates a plugin from its buses, parameters and kernel. Without
// a controller the parameters are still automatable through process data
// but not visible to the host.
func NewBase(buses *bus.Configuration, params *param.Registry, kernel Kernel, controller bool) *Base {
	if buses == nil {
		buses = bus.NewStereoConfiguration()
	}
	if params == nil {
		params = param.NewRegistry()
	}
	return &Base{
		buses:      buses,
		params:     params,
		kernel:     kernel,
		controller: controller,
	}
}

// Parameters returns the parameter registry
func (b *Base) Parameters() *param.Registry {
	return b.params
}

// Initialize implements vst3.Component and vst3.EditController
func (b *Base) Initialize(context interface{}) error {
	b.initialized = true
	return nil
}

// Terminate implements vst3.Component and vst3.EditController
func (b *Base) Terminate() error {
	b.processing.Store(false)
	b.active.Store(false)
	b.initialized = false
	b.configured = false
	return nil
}

// ControllerClassID implements vst3.Component. The controller, when there
// is one, lives on the component itself.
func (b *Base) ControllerClassID() (vst3.TUID, bool) {
	return vst3.TUID{}, false
}

// BusCount implements vst3.Component
func (b *Base) BusCount(media vst3.MediaType, dir vst3.BusDirection) int32 {
	return b.buses.BusCount(media, dir)
}

// BusInfo implements vst3.Component
func (b *Base) BusInfo(media vst3.MediaType, dir vst3.BusDirection, index int32) (vst3.BusInfo, error) {
	return b.buses.BusInfo(media, dir, index)
}

// ActivateBus implements vst3.Component
func (b *Base) ActivateBus(media vst3.MediaType, dir vst3.BusDirection, index int32, state bool) error {
	return b.buses.ActivateBus(media, dir, index, state)
}

// SetActive implements vst3.Component
func (b *Base) SetActive(state bool) error {
	if state && !b.configured {
		return vst3.ResultNotInitialized
	}
	if !state {
		b.processing.Store(false)
		if b.kernel != nil {
			b.kernel.Reset()
		}
	}
	b.active.Store(state)
	return nil
}

// QueryInterface implements vst3.Component
func (b *Base) QueryInterface(iid vst3.TUID) (interface{}, error) {
	switch iid {
	case vst3.IIDFUnknown, vst3.IIDIPluginBase, vst3.IIDIComponent, vst3.IIDIAudioProcessor:
		return b, nil
	case vst3.IIDIEditController:
		if b.controller {
			return b, nil
		}
	}
	return nil, vst3.ResultNoInterface
}

// CanProcessSampleSize implements vst3.AudioProcessor
func (b *Base) CanProcessSampleSize(size vst3.SymbolicSampleSize) error {
	if size != vst3.Sample32 {
		return vst3.ResultFalse
	}
	return nil
}

// LatencySamples implements vst3.AudioProcessor
func (b *Base) LatencySamples() uint32 {
	return 0
}

// TailSamples implements vst3.AudioProcessor
func (b *Base) TailSamples() uint32 {
	return 0
}

// SetupProcessing implements vst3.AudioProcessor
func (b *Base) SetupProcessing(setup vst3.ProcessSetup) error {
	if b.active.Load() {
		return vst3.ResultFalse
	}
	if setup.SampleRate < MinSampleRate || setup.SampleRate > MaxSampleRate {
		return vst3.ResultInvalidArgument
	}
	if setup.MaxSamplesPerBlock <= 0 || setup.MaxSamplesPerBlock > MaxBlockSize {
		return vst3.ResultInvalidArgument
	}
	if err := b.CanProcessSampleSize(setup.SymbolicSampleSize); err != nil {
		return err
	}

	channels := 0
	for _, dir := range []vst3.BusDirection{vst3.BusDirectionInput, vst3.BusDirectionOutput} {
		for i := int32(0); i < b.buses.BusCount(vst3.MediaTypeAudio, dir); i++ {
			info, _ := b.buses.BusInfo(vst3.MediaTypeAudio, dir, i)
			channels = max(channels, int(info.ChannelCount))
		}
	}

	b.setup = setup
	b.ctx = process.NewContext(int(setup.MaxSamplesPerBlock), channels, b.params)
	b.ctx.SampleRate = setup.SampleRate
	if b.kernel != nil {
		b.kernel.Setup(setup.SampleRate, int(setup.MaxSamplesPerBlock))
	}
	b.configured = true
	return nil
}

// SetProcessing implements vst3.AudioProcessor
func (b *Base) SetProcessing(state bool) error {
	if state && !b.active.Load() {
		return vst3.ResultNotInitialized
	}
	b.processing.Store(state)
	return nil
}

// Process implements vst3.AudioProcessor
func (b *Base) Process(data *vst3.ProcessData) error {
	if !b.processing.Load() {
		return vst3.ResultNotInitialized
	}
	if data.NumSamples < 0 || data.NumSamples > b.setup.MaxSamplesPerBlock {
		return vst3.ResultInvalidArgument
	}
	if data.NumSamples == 0 || b.kernel == nil {
		return nil
	}

	b.ctx.Bind(data)
	b.kernel.Process(b.ctx)
	b.ctx.CommitChanges()
	return nil
}

// ParameterCount implements vst3.EditController
func (b *Base) ParameterCount() int32 {
	return b.params.Count()
}

// ParameterInfo implements vst3.EditController
func (b *Base) ParameterInfo(index int32) (vst3.ParameterInfo, error) {
	p := b.params.GetByIndex(index)
	if p == nil {
		return vst3.ParameterInfo{}, vst3.ResultInvalidArgument
	}
	return p.Info(), nil
}

// ParamNormalized implements vst3.EditController
func (b *Base) ParamNormalized(id vst3.ParamID) float64 {
	return b.params.Value(id)
}

// SetParamNormalized implements vst3.EditController
func (b *Base) SetParamNormalized(id vst3.ParamID, value float64) error {
	p := b.params.Get(id)
	if p == nil {
		return vst3.ResultInvalidArgument
	}
	p.SetValue(value)
	return nil
}

// NormalizedToPlain implements vst3.EditController
func (b *Base) NormalizedToPlain(id vst3.ParamID, normalized float64) float64 {
	if p := b.params.Get(id); p != nil {
		return p.Denormalize(normalized)
	}
	return normalized
}

// PlainToNormalized implements vst3.EditController
func (b *Base) PlainToNormalized(id vst3.ParamID, plain float64) float64 {
	if p := b.params.Get(id); p != nil {
		return p.Normalize(plain)
	}
	return plain
}
