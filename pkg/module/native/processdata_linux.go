//go:build linux

package native

import (
	"runtime"
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

type cProcessSetup struct {
	processMode        int32
	symbolicSampleSize int32
	maxSamplesPerBlock int32
	_                  int32
	sampleRate         float64
}

type cAudioBusBuffers struct {
	numChannels      int32
	_                int32
	silenceFlags     uint64
	channelBuffers32 uintptr
}

type cProcessContext struct {
	state                uint32
	_                    uint32
	sampleRate           float64
	projectTimeSamples   int64
	systemTime           int64
	continousTimeSamples int64
	projectTimeMusic     float64
	barPositionMusic     float64
	cycleStartMusic      float64
	cycleEndMusic        float64
	tempo                float64
	timeSigNumerator     int32
	timeSigDenominator   int32
	keyNote              uint8
	rootNote             uint8
	chordMask            int16
	smpteOffsetSubframes int32
	framesPerSecond      uint32
	frameRateFlags       uint32
	samplesToNextClock   int32
	_                    int32
}

type cProcessData struct {
	processMode            int32
	symbolicSampleSize     int32
	numSamples             int32
	numInputs              int32
	numOutputs             int32
	_                      int32
	inputs                 uintptr
	outputs                uintptr
	inputParameterChanges  uintptr
	outputParameterChanges uintptr
	inputEvents            uintptr
	outputEvents           uintptr
	processContext         uintptr
}

// processData is the pinned C image of a vst3.ProcessData. It is built
// once per setup; per block only counts, flags and the parameter
// bridge pointer change.
type processData struct {
	src     *vst3.ProcessData
	data    *cProcessData
	context *cProcessContext
	inputs  []cAudioBusBuffers
	outputs []cAudioBusBuffers
	// channel pointer arrays, one per bus
	pointers [][]uintptr
	changes  *paramChanges
	pinner   runtime.Pinner
}

func newProcessData(src *vst3.ProcessData) *processData {
	p := &processData{
		src:     src,
		data:    &cProcessData{},
		context: &cProcessContext{},
		inputs:  make([]cAudioBusBuffers, len(src.Inputs)),
		outputs: make([]cAudioBusBuffers, len(src.Outputs)),
	}
	capacity := 1
	if src.InputParameterChanges != nil {
		capacity = src.InputParameterChanges.Cap()
	}
	p.changes = newParamChanges(capacity)

	p.pinner.Pin(p.data)
	p.pinner.Pin(p.context)
	p.bindBuses(p.inputs, src.Inputs)
	p.bindBuses(p.outputs, src.Outputs)

	p.data.numInputs = int32(len(p.inputs))
	p.data.numOutputs = int32(len(p.outputs))
	if len(p.inputs) > 0 {
		p.data.inputs = uintptr(unsafe.Pointer(&p.inputs[0]))
	}
	if len(p.outputs) > 0 {
		p.data.outputs = uintptr(unsafe.Pointer(&p.outputs[0]))
	}
	return p
}

func (p *processData) bindBuses(dst []cAudioBusBuffers, src []vst3.AudioBusBuffers) {
	if len(dst) == 0 {
		return
	}
	p.pinner.Pin(&dst[0])
	for i := range src {
		ptrs := make([]uintptr, max(len(src[i].Channels), 1))
		for c, ch := range src[i].Channels {
			if len(ch) == 0 {
				continue
			}
			p.pinner.Pin(&ch[0])
			ptrs[c] = uintptr(unsafe.Pointer(&ch[0]))
		}
		p.pinner.Pin(&ptrs[0])
		p.pointers = append(p.pointers, ptrs)
		dst[i].numChannels = int32(len(src[i].Channels))
		dst[i].channelBuffers32 = uintptr(unsafe.Pointer(&ptrs[0]))
	}
}

// matches reports whether the image was built for src with the same
// buffers.
func (p *processData) matches(src *vst3.ProcessData) bool {
	if p.src != src || len(p.inputs) != len(src.Inputs) || len(p.outputs) != len(src.Outputs) {
		return false
	}
	if src.InputParameterChanges != nil && src.InputParameterChanges.Cap() > len(p.changes.obj.queues) {
		return false
	}
	k := 0
	for _, buses := range [][]vst3.AudioBusBuffers{src.Inputs, src.Outputs} {
		for _, b := range buses {
			ptrs := p.pointers[k]
			k++
			if len(b.Channels) > len(ptrs) {
				return false
			}
			for c, ch := range b.Channels {
				if len(ch) == 0 || ptrs[c] != uintptr(unsafe.Pointer(&ch[0])) {
					return false
				}
			}
		}
	}
	return true
}

// update copies the per block fields of src into the C image.
func (p *processData) update(src *vst3.ProcessData) uintptr {
	d := p.data
	d.processMode = int32(src.ProcessMode)
	d.symbolicSampleSize = int32(src.SymbolicSampleSize)
	d.numSamples = src.NumSamples
	for i := range p.inputs {
		p.inputs[i].silenceFlags = src.Inputs[i].SilenceFlags
	}
	for i := range p.outputs {
		p.outputs[i].silenceFlags = 0
	}
	d.inputParameterChanges = p.changes.bind(src.InputParameterChanges)

	d.processContext = 0
	if ctx := src.Context; ctx != nil {
		c := p.context
		c.state = ctx.State
		c.sampleRate = ctx.SampleRate
		c.projectTimeSamples = ctx.ProjectTimeSamples
		c.continousTimeSamples = ctx.ContinuousTimeSamples
		c.tempo = ctx.Tempo
		d.processContext = uintptr(unsafe.Pointer(c))
	}
	return uintptr(unsafe.Pointer(d))
}

func (p *processData) close() {
	p.changes.close()
	p.pinner.Unpin()
}
