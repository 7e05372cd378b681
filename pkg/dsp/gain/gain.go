// Package gain provides amplitude conversion and metering for the builtin
// plugins.
package gain

import (
	"math"
)

// MinDB is the floor reported for silence
const MinDB = -200.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// ApplyBuffer applies gain to an entire buffer in-place.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// ApplyCurve multiplies each sample by the matching entry of curve.
func ApplyCurve(buffer, curve []float32) {
	n := len(buffer)
	if len(curve) < n {
		n = len(curve)
	}
	for i := 0; i < n; i++ {
		buffer[i] *= curve[i]
	}
}

// Peak returns the largest absolute sample value.
func Peak(buffer []float32) float32 {
	var peak float32
	for _, s := range buffer {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// RMS returns the root mean square of the buffer.
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buffer {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(buffer))))
}
