//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// IComponent slots.
const (
	slotInitialize           = 3
	slotTerminate            = 4
	slotGetControllerClassID = 5
	slotGetBusCount          = 7
	slotGetBusInfo           = 8
	slotActivateBus          = 10
	slotSetActive            = 11
)

// IAudioProcessor slots.
const (
	slotCanProcessSampleSize = 5
	slotGetLatencySamples    = 6
	slotSetupProcessing      = 7
	slotSetProcessing        = 8
	slotProcess              = 9
	slotGetTailSamples       = 10
)

// component adapts an IComponent.
type component struct {
	obj        object
	processor  *processor
	controller *controller
}

func newComponent(obj object) *component {
	return &component{obj: obj}
}

func (c *component) Initialize(context interface{}) error {
	return c.obj.result(slotInitialize, 0)
}

func (c *component) Terminate() error {
	return c.obj.result(slotTerminate)
}

func (c *component) ControllerClassID() (vst3.TUID, bool) {
	id := new(vst3.TUID)
	err := c.obj.result(slotGetControllerClassID, uintptr(unsafe.Pointer(id)))
	runtime.KeepAlive(id)
	if err != nil || id.IsZero() {
		return vst3.TUID{}, false
	}
	return *id, true
}

func (c *component) BusCount(media vst3.MediaType, dir vst3.BusDirection) int32 {
	return int32(c.obj.call(slotGetBusCount, uintptr(media), uintptr(dir)))
}

func (c *component) BusInfo(media vst3.MediaType, dir vst3.BusDirection, index int32) (vst3.BusInfo, error) {
	buf := make([]byte, sizeBusInfo)
	err := c.obj.result(slotGetBusInfo, uintptr(media), uintptr(dir), uintptr(index), uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if err != nil {
		return vst3.BusInfo{}, err
	}
	return decodeBusInfo(buf), nil
}

func (c *component) ActivateBus(media vst3.MediaType, dir vst3.BusDirection, index int32, state bool) error {
	return c.obj.result(slotActivateBus, uintptr(media), uintptr(dir), uintptr(index), boolArg(state))
}

func (c *component) SetActive(state bool) error {
	return c.obj.result(slotSetActive, boolArg(state))
}

func (c *component) QueryInterface(iid vst3.TUID) (interface{}, error) {
	switch iid {
	case vst3.IIDFUnknown, vst3.IIDIPluginBase, vst3.IIDIComponent:
		return c, nil
	case vst3.IIDIAudioProcessor:
		if c.processor == nil {
			obj, err := c.obj.queryInterface(iid)
			if err != nil {
				return nil, err
			}
			c.processor = &processor{obj: obj}
		}
		return c.processor, nil
	case vst3.IIDIEditController:
		if c.controller == nil {
			obj, err := c.obj.queryInterface(iid)
			if err != nil {
				return nil, err
			}
			c.controller = newController(obj, false)
		}
		return c.controller, nil
	}
	return nil, vst3.ResultNoInterface
}

// Release drops every reference taken through this adapter.
func (c *component) Release() {
	if c.processor != nil {
		c.processor.Release()
		c.processor = nil
	}
	if c.controller != nil {
		c.controller.Release()
		c.controller = nil
	}
	c.obj.release()
	c.obj = 0
}

// processor adapts an IAudioProcessor.
type processor struct {
	obj  object
	data *processData
}

func (p *processor) CanProcessSampleSize(size vst3.SymbolicSampleSize) error {
	return p.obj.result(slotCanProcessSampleSize, uintptr(size))
}

func (p *processor) LatencySamples() uint32 {
	return uint32(p.obj.call(slotGetLatencySamples))
}

func (p *processor) TailSamples() uint32 {
	return uint32(p.obj.call(slotGetTailSamples))
}

func (p *processor) SetupProcessing(setup vst3.ProcessSetup) error {
	cs := &cProcessSetup{
		processMode:        int32(setup.ProcessMode),
		symbolicSampleSize: int32(setup.SymbolicSampleSize),
		maxSamplesPerBlock: setup.MaxSamplesPerBlock,
		sampleRate:         setup.SampleRate,
	}
	err := p.obj.result(slotSetupProcessing, uintptr(unsafe.Pointer(cs)))
	runtime.KeepAlive(cs)
	return err
}

func (p *processor) SetProcessing(state bool) error {
	err := p.obj.result(slotSetProcessing, boolArg(state))
	// Many plugins return kNotImplemented here.
	if err == vst3.ResultNotImplemented {
		return nil
	}
	return err
}

// PrepareProcessing builds the pinned C image of data.
func (p *processor) PrepareProcessing(data *vst3.ProcessData) error {
	if p.data != nil {
		p.data.close()
	}
	p.data = newProcessData(data)
	return nil
}

func (p *processor) Process(data *vst3.ProcessData) error {
	if p.data == nil || !p.data.matches(data) {
		if err := p.PrepareProcessing(data); err != nil {
			return err
		}
	}
	ptr := p.data.update(data)
	r, _, _ := purego.SyscallN(p.obj.method(slotProcess), uintptr(p.obj), ptr)
	for i := range p.data.outputs {
		data.Outputs[i].SilenceFlags = p.data.outputs[i].silenceFlags
	}
	return vst3.Result(int32(r)).Err()
}

func (p *processor) Release() {
	if p.data != nil {
		p.data.close()
		p.data = nil
	}
	p.obj.release()
	p.obj = 0
}
