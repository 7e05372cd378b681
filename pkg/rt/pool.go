package rt

import (
	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// BufferPool owns every sample buffer an instance processes into. All
// channels share one slab allocated at setup; nothing is allocated per
// block.
type BufferPool struct {
	slab      []float32
	maxFrames int
	inputs    []vst3.AudioBusBuffers
	outputs   []vst3.AudioBusBuffers

	// flat channel views, inputs then outputs
	in  [][]float32
	out [][]float32
}

// NewBufferPool allocates buffers for layout at maxFrames per channel.
func NewBufferPool(layout bus.Layout, maxFrames int) *BufferPool {
	total := (layout.InputChannels() + layout.OutputChannels()) * maxFrames
	p := &BufferPool{
		slab:      make([]float32, total),
		maxFrames: maxFrames,
	}

	off := 0
	carve := func(counts []int32, flat *[][]float32) []vst3.AudioBusBuffers {
		buses := make([]vst3.AudioBusBuffers, len(counts))
		for i, n := range counts {
			chans := make([][]float32, n)
			for c := range chans {
				chans[c] = p.slab[off : off+maxFrames : off+maxFrames]
				off += maxFrames
				*flat = append(*flat, chans[c])
			}
			buses[i].Channels = chans
		}
		return buses
	}
	p.inputs = carve(layout.Inputs, &p.in)
	p.outputs = carve(layout.Outputs, &p.out)
	return p
}

// MaxFrames returns the per-channel capacity.
func (p *BufferPool) MaxFrames() int {
	return p.maxFrames
}

// Inputs returns the input buses, for ProcessData.
func (p *BufferPool) Inputs() []vst3.AudioBusBuffers {
	return p.inputs
}

// Outputs returns the output buses, for ProcessData.
func (p *BufferPool) Outputs() []vst3.AudioBusBuffers {
	return p.outputs
}

// InputChannels returns every input channel across buses, in bus order.
func (p *BufferPool) InputChannels() [][]float32 {
	return p.in
}

// OutputChannels returns every output channel across buses, in bus order.
func (p *BufferPool) OutputChannels() [][]float32 {
	return p.out
}

// LoadInputs copies frames samples starting at from out of src into the
// input channels. Missing source channels are zeroed.
func (p *BufferPool) LoadInputs(src [][]float32, from, frames int) {
	for c, dst := range p.in {
		if c < len(src) {
			copy(dst[:frames], src[c][from:from+frames])
		} else {
			clear(dst[:frames])
		}
	}
}

// StoreOutputs copies frames samples of the output channels into dst
// starting at from.
func (p *BufferPool) StoreOutputs(dst [][]float32, from, frames int) {
	for c, src := range p.out {
		if c >= len(dst) {
			return
		}
		copy(dst[c][from:from+frames], src[:frames])
	}
}

// ClearOutputs zeroes the first frames samples of every output channel.
func (p *BufferPool) ClearOutputs(frames int) {
	for _, ch := range p.out {
		clear(ch[:frames])
	}
}
