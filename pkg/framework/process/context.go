// Package process provides the per-block view a builtin processor works on.
package process

import (
	"github.com/justyntemme/vst3host/pkg/framework/param"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Context provides a clean API for audio processing with zero allocations
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// backing arrays for Input and Output, sized at construction
	inputs  [][]float32
	outputs [][]float32

	workBuffer []float32
	numSamples int

	params  *param.Registry
	changes *vst3.ParameterChanges
}

// NewContext creates a new process context with pre-allocated buffers
func NewContext(maxBlockSize, maxChannels int, params *param.Registry) *Context {
	return &Context{
		inputs:     make([][]float32, 0, maxChannels),
		outputs:    make([][]float32, 0, maxChannels),
		workBuffer: make([]float32, maxBlockSize),
		params:     params,
	}
}

// Bind points the context at the main buses of data for one block.
func (c *Context) Bind(data *vst3.ProcessData) {
	n := int(data.NumSamples)
	c.numSamples = n
	c.changes = data.InputParameterChanges

	c.Input = c.inputs[:0]
	if len(data.Inputs) > 0 {
		for _, ch := range data.Inputs[0].Channels {
			if len(c.Input) == cap(c.Input) {
				break
			}
			c.Input = append(c.Input, ch[:n])
		}
	}
	c.Output = c.outputs[:0]
	if len(data.Outputs) > 0 {
		for _, ch := range data.Outputs[0].Channels {
			if len(c.Output) == cap(c.Output) {
				break
			}
			c.Output = append(c.Output, ch[:n])
		}
	}
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	return c.params.Value(id)
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// ParamAt returns the normalized value of id at sample offset, following
// any automation in this block.
func (c *Context) ParamAt(id uint32, offset int) float64 {
	if c.changes != nil {
		if q := c.changes.Find(id); q != nil {
			if v, ok := q.ValueAt(int32(offset)); ok {
				return v
			}
		}
	}
	return c.params.Value(id)
}

// Automated reports whether id has points in this block.
func (c *Context) Automated(id uint32) bool {
	return c.changes != nil && c.changes.Find(id) != nil
}

// CommitChanges stores the last point of every queue as the parameter
// value, so the next block starts where this one ended.
func (c *Context) CommitChanges() {
	if c.changes == nil {
		return
	}
	for i := int32(0); i < c.changes.Count(); i++ {
		q := c.changes.Queue(i)
		if pt, ok := q.Point(q.PointCount() - 1); ok {
			if p := c.params.Get(q.ID); p != nil {
				p.SetValue(pt.Value)
			}
		}
	}
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	return c.numSamples
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.numSamples]
}

// PassThrough copies input to output (for bypass)
func (c *Context) PassThrough() {
	numChannels := c.NumInputChannels()
	if c.NumOutputChannels() < numChannels {
		numChannels = c.NumOutputChannels()
	}
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch], c.Input[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}
