// Package delay provides delay line implementations for audio effects
package delay

// Line implements a basic delay line with linear interpolation
type Line struct {
	buffer     []float32
	writePos   int
	sampleRate float64
}

// New creates a new delay line with the specified maximum delay time
func New(maxDelaySeconds, sampleRate float64) *Line {
	return &Line{
		buffer:     make([]float32, int(maxDelaySeconds*sampleRate)+2),
		sampleRate: sampleRate,
	}
}

// MaxDelaySamples is the longest delay Read supports
func (d *Line) MaxDelaySamples() float64 {
	return float64(len(d.buffer) - 2)
}

// Reset clears the delay buffer
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

// Write adds a sample to the delay line
func (d *Line) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read gets a delayed sample, delay in samples, at least one
func (d *Line) Read(delaySamples float64) float32 {
	if delaySamples < 1 {
		delaySamples = 1
	} else if max := d.MaxDelaySamples(); delaySamples > max {
		delaySamples = max
	}
	size := len(d.buffer)
	readPos := float64(d.writePos) - delaySamples
	if readPos < 0 {
		readPos += float64(size)
	}

	i := int(readPos)
	frac := float32(readPos - float64(i))
	s1 := d.buffer[i%size]
	s2 := d.buffer[(i+1)%size]
	return s1*(1.0-frac) + s2*frac
}

// Process reads the delayed sample and writes input plus feedback
func (d *Line) Process(input float32, delaySamples float64, feedback float32) float32 {
	out := d.Read(delaySamples)
	d.Write(input + out*feedback)
	return out
}

// SamplesForMs converts a delay time to samples at the line's rate
func (d *Line) SamplesForMs(ms float64) float64 {
	return ms * d.sampleRate / 1000.0
}
