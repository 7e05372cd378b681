package param

import (
	"math"
)

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing reaches the target in exactly rate samples
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole filter with coefficient rate
	ExponentialSmoothing
	// LogarithmicSmoothing interpolates in log space over rate samples
	LogarithmicSmoothing
)

// Smoother moves a value towards a target one sample at a time.
// It is not safe for concurrent use; the audio thread owns it.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool

	// linear
	step      float64
	remaining int

	// logarithmic
	logCurrent float64
	logTarget  float64
	logStep    float64
}

// NewSmoother creates a new parameter smoother.
// rate: samples for linear and logarithmic, coefficient (0.9-0.999) for exponential
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
	}
}

// SetTarget sets the target value, starting from the current value.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold && !s.isSmoothing {
		s.current = target
		s.target = target
		return
	}
	if s.rate <= 0 {
		s.Reset(target)
		return
	}

	s.target = target
	s.isSmoothing = true

	switch s.smoothingType {
	case LinearSmoothing:
		s.remaining = int(math.Ceil(s.rate))
		s.step = (target - s.current) / float64(s.remaining)

	case LogarithmicSmoothing:
		const minVal = 0.001
		s.logCurrent = math.Log(math.Max(s.current, minVal))
		s.logTarget = math.Log(math.Max(target, minVal))
		s.remaining = int(math.Ceil(s.rate))
		s.logStep = (s.logTarget - s.logCurrent) / float64(s.remaining)
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.finish()
		}

	case LinearSmoothing:
		s.remaining--
		if s.remaining <= 0 {
			s.finish()
		} else {
			s.current += s.step
		}

	case LogarithmicSmoothing:
		s.remaining--
		if s.remaining <= 0 {
			s.finish()
		} else {
			s.logCurrent += s.logStep
			s.current = math.Exp(s.logCurrent)
		}
	}

	return s.current
}

// Skip advances n samples and returns the value reached. Linear ramps
// advance in constant time.
func (s *Smoother) Skip(n int) float64 {
	if n <= 0 || !s.isSmoothing {
		return s.current
	}
	if s.smoothingType == LinearSmoothing {
		if n >= s.remaining {
			s.finish()
			return s.current
		}
		s.remaining -= n
		s.current += s.step * float64(n)
		return s.current
	}
	for i := 0; i < n && s.isSmoothing; i++ {
		s.Next()
	}
	return s.current
}

func (s *Smoother) finish() {
	s.current = s.target
	s.isSmoothing = false
	s.remaining = 0
}

// Process processes a buffer with the smoothed parameter.
// The callback receives the current smoothed value for each sample.
func (s *Smoother) Process(buffer []float32, callback func(value float64, sample float32) float32) {
	for i := range buffer {
		value := s.Next()
		buffer[i] = callback(value, buffer[i])
	}
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Current returns the value without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}

// Remaining returns the samples left in a linear or logarithmic ramp.
func (s *Smoother) Remaining() int {
	return s.remaining
}

// Reset jumps to value and stops smoothing.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
	s.remaining = 0
}

// SetRate updates the smoothing rate for the next target.
func (s *Smoother) SetRate(rate float64) {
	s.rate = rate
}

// SetThreshold sets the threshold for considering smoothing complete.
func (s *Smoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// RateForTime returns the rate that reaches a target in ms at sampleRate.
func RateForTime(smoothingType SmoothingType, sampleRate, ms float64) float64 {
	samples := sampleRate * ms / 1000.0
	if smoothingType == ExponentialSmoothing {
		if samples <= 0 {
			return 0
		}
		// -60dB after samples
		return math.Exp(-6.908 / samples)
	}
	return samples
}
