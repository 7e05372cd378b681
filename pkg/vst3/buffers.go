package vst3

// AudioBusBuffers holds the channel buffers of one bus for one block.
type AudioBusBuffers struct {
	Channels     [][]float32
	SilenceFlags uint64
}

// NumChannels returns the number of channels on the bus
func (b *AudioBusBuffers) NumChannels() int32 {
	return int32(len(b.Channels))
}

// ProcessContext carries transport information for a block.
type ProcessContext struct {
	State                 uint32
	SampleRate            float64
	ProjectTimeSamples    int64
	ContinuousTimeSamples int64
	Tempo                 float64
}

// ProcessData is everything a processor sees for one block. The host
// builds it once per setup and only rewrites counts and queues per block.
type ProcessData struct {
	ProcessMode           ProcessMode
	SymbolicSampleSize    SymbolicSampleSize
	NumSamples            int32
	Inputs                []AudioBusBuffers
	Outputs               []AudioBusBuffers
	InputParameterChanges *ParameterChanges
	Context               *ProcessContext
}

// Input returns channel ch of input bus bus, cut to NumSamples.
func (d *ProcessData) Input(bus, ch int) []float32 {
	if bus < 0 || bus >= len(d.Inputs) || ch < 0 || ch >= len(d.Inputs[bus].Channels) {
		return nil
	}
	return d.Inputs[bus].Channels[ch][:d.NumSamples]
}

// Output returns channel ch of output bus bus, cut to NumSamples.
func (d *ProcessData) Output(bus, ch int) []float32 {
	if bus < 0 || bus >= len(d.Outputs) || ch < 0 || ch >= len(d.Outputs[bus].Channels) {
		return nil
	}
	return d.Outputs[bus].Channels[ch][:d.NumSamples]
}

// ParamPoint is one automation point inside a block.
type ParamPoint struct {
	Offset int32
	Value  float64
}

// ParamValueQueue holds the points of one parameter for one block, ordered
// by offset. Values between points are interpolated linearly.
type ParamValueQueue struct {
	ID     ParamID
	points []ParamPoint
}

// PointCount returns the number of points in the queue
func (q *ParamValueQueue) PointCount() int32 {
	return int32(len(q.points))
}

// Point returns point i.
func (q *ParamValueQueue) Point(i int32) (ParamPoint, bool) {
	if i < 0 || int(i) >= len(q.points) {
		return ParamPoint{}, false
	}
	return q.points[i], true
}

// AddPoint appends a point. A point at the offset of the last one replaces
// it; an earlier offset or a full queue is rejected.
func (q *ParamValueQueue) AddPoint(offset int32, value float64) bool {
	if n := len(q.points); n > 0 {
		last := &q.points[n-1]
		if offset == last.Offset {
			last.Value = value
			return true
		}
		if offset < last.Offset {
			return false
		}
	}
	if len(q.points) == cap(q.points) {
		return false
	}
	q.points = append(q.points, ParamPoint{Offset: offset, Value: value})
	return true
}

// ValueAt returns the interpolated value at offset, and false if the queue
// is empty.
func (q *ParamValueQueue) ValueAt(offset int32) (float64, bool) {
	n := len(q.points)
	if n == 0 {
		return 0, false
	}
	if offset <= q.points[0].Offset {
		return q.points[0].Value, true
	}
	for i := 1; i < n; i++ {
		b := q.points[i]
		if offset > b.Offset {
			continue
		}
		a := q.points[i-1]
		t := float64(offset-a.Offset) / float64(b.Offset-a.Offset)
		return a.Value + (b.Value-a.Value)*t, true
	}
	return q.points[n-1].Value, true
}

// ParameterChanges is a fixed capacity set of parameter queues. Nothing in
// it allocates after construction.
type ParameterChanges struct {
	queues []ParamValueQueue
	count  int
}

// NewParameterChanges preallocates room for maxParams queues of maxPoints each.
func NewParameterChanges(maxParams, maxPoints int) *ParameterChanges {
	c := &ParameterChanges{queues: make([]ParamValueQueue, maxParams)}
	for i := range c.queues {
		c.queues[i].points = make([]ParamPoint, 0, maxPoints)
	}
	return c
}

// Clear empties every queue in place.
func (c *ParameterChanges) Clear() {
	for i := 0; i < c.count; i++ {
		c.queues[i].points = c.queues[i].points[:0]
	}
	c.count = 0
}

// Count returns the number of parameters with points in this block.
func (c *ParameterChanges) Count() int32 {
	return int32(c.count)
}

// Cap returns the number of queues the set can hold.
func (c *ParameterChanges) Cap() int {
	return len(c.queues)
}

// Queue returns queue i, or nil when out of range.
func (c *ParameterChanges) Queue(i int32) *ParamValueQueue {
	if i < 0 || int(i) >= c.count {
		return nil
	}
	return &c.queues[i]
}

// Find returns the queue for id, or nil.
func (c *ParameterChanges) Find(id ParamID) *ParamValueQueue {
	for i := 0; i < c.count; i++ {
		if c.queues[i].ID == id {
			return &c.queues[i]
		}
	}
	return nil
}

// AddPoint records a point for id, claiming a new queue when needed. It
// reports false when the set or the queue is full.
func (c *ParameterChanges) AddPoint(id ParamID, offset int32, value float64) bool {
	q := c.Find(id)
	if q == nil {
		if c.count == len(c.queues) {
			return false
		}
		q = &c.queues[c.count]
		q.ID = id
		q.points = q.points[:0]
		c.count++
	}
	return q.AddPoint(offset, value)
}
