// Package param provides normalized plugin parameters, an ordered registry
// and smoothing for sample-accurate automation.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Parameter represents a plugin parameter
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // normalized
	StepCount    int32
	Flags        int32
	UnitID       int32

	// float64 bits, read from the audio thread without locking
	value atomic.Uint64

	formatFunc func(float64) string
}

// Flags for parameters
const (
	CanAutomate     = vst3.ParameterCanAutomate
	IsReadOnly      = vst3.ParameterIsReadOnly
	IsWrapAround    = vst3.ParameterIsWrapAround
	IsList          = vst3.ParameterIsList
	IsHidden        = vst3.ParameterIsHidden
	IsProgramChange = vst3.ParameterIsProgramChange
	IsBypass        = vst3.ParameterIsBypass
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to 0-1
func (p *Parameter) SetValue(value float64) {
	p.value.Store(math.Float64bits(Clamp(value)))
}

// GetPlainValue converts normalized to plain value
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	return Clamp((plain - p.Min) / (p.Max - p.Min))
}

// Denormalize converts normalized (0-1) to plain value. Stepped parameters
// snap to the nearest step.
func (p *Parameter) Denormalize(normalized float64) float64 {
	if p.StepCount > 0 {
		step := math.Round(Clamp(normalized) * float64(p.StepCount))
		return p.Min + step*(p.Max-p.Min)/float64(p.StepCount)
	}
	return p.Min + normalized*(p.Max-p.Min)
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a plain value string to normalized
func (p *Parameter) ParseValue(str string) (float64, error) {
	plain, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

// Info describes the parameter the way a controller reports it.
func (p *Parameter) Info() vst3.ParameterInfo {
	return vst3.ParameterInfo{
		ID:           p.ID,
		Title:        p.Name,
		ShortTitle:   p.ShortName,
		Units:        p.Unit,
		StepCount:    p.StepCount,
		DefaultValue: p.DefaultValue,
		UnitID:       p.UnitID,
		Flags:        p.Flags,
	}
}

// Clamp limits v to the normalized range. NaN becomes 0.
func Clamp(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
