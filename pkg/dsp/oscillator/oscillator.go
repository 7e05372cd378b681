// Package oscillator provides audio oscillators for synthesis
package oscillator

import "math"

// Waveform selects the shape produced by an Oscillator
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
)

// WaveformCount is the number of waveforms, for stepped parameters
const WaveformCount = 4

// Oscillator generates periodic waveforms
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
}

// New creates a new oscillator at 440 Hz
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{sampleRate: sampleRate}
	o.SetFrequency(440)
	return o
}

// SetFrequency sets the oscillator frequency
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = freq / o.sampleRate
}

// Frequency returns the current frequency
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// SetSampleRate changes the rate while keeping the frequency
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = sampleRate
	o.SetFrequency(o.frequency)
}

// Reset resets the oscillator phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0.0
}

// Next returns one sample of w and advances the phase
func (o *Oscillator) Next(w Waveform) float32 {
	var sample float32
	switch w {
	case Saw:
		sample = float32(2.0*o.phase - 1.0)
	case Square:
		if o.phase < 0.5 {
			sample = 1.0
		} else {
			sample = -1.0
		}
	case Triangle:
		if o.phase < 0.5 {
			sample = float32(4.0*o.phase - 1.0)
		} else {
			sample = float32(3.0 - 4.0*o.phase)
		}
	default:
		sample = float32(math.Sin(2.0 * math.Pi * o.phase))
	}

	o.phase += o.phaseInc
	if o.phase >= 1.0 {
		o.phase -= math.Floor(o.phase)
	}
	return sample
}

// Process fills buffer with w - no allocations
func (o *Oscillator) Process(buffer []float32, w Waveform) {
	for i := range buffer {
		buffer[i] = o.Next(w)
	}
}
