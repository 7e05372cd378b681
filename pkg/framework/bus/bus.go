// Package bus describes audio bus layouts, both the ones a plugin declares
// and the ones a host reads back from a component.
package bus

import (
	"fmt"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Info contains bus configuration
type Info struct {
	Direction    vst3.BusDirection
	ChannelCount int32
	Name         string
	BusType      vst3.BusType
	IsActive     bool
}

// Configuration is the set of audio buses a plugin declares.
type Configuration struct {
	audioBuses []Info
}

// NewConfiguration builds a configuration from explicit buses.
func NewConfiguration(buses ...Info) *Configuration {
	return &Configuration{audioBuses: buses}
}

// NewStereoConfiguration creates a standard stereo I/O configuration
func NewStereoConfiguration() *Configuration {
	return NewConfiguration(
		Info{Direction: vst3.BusDirectionInput, ChannelCount: 2, Name: "Stereo In", BusType: vst3.BusTypeMain, IsActive: true},
		Info{Direction: vst3.BusDirectionOutput, ChannelCount: 2, Name: "Stereo Out", BusType: vst3.BusTypeMain, IsActive: true},
	)
}

// NewGenerator creates an output-only configuration for instruments
func NewGenerator() *Configuration {
	return NewConfiguration(
		Info{Direction: vst3.BusDirectionOutput, ChannelCount: 2, Name: "Stereo Out", BusType: vst3.BusTypeMain, IsActive: true},
	)
}

// BusCount returns the number of audio buses in a direction. Event buses
// are not modelled.
func (c *Configuration) BusCount(media vst3.MediaType, dir vst3.BusDirection) int32 {
	if media != vst3.MediaTypeAudio {
		return 0
	}
	count := int32(0)
	for _, b := range c.audioBuses {
		if b.Direction == dir {
			count++
		}
	}
	return count
}

// bus returns the index-th bus of a direction
func (c *Configuration) bus(dir vst3.BusDirection, index int32) *Info {
	n := int32(0)
	for i := range c.audioBuses {
		if c.audioBuses[i].Direction != dir {
			continue
		}
		if n == index {
			return &c.audioBuses[i]
		}
		n++
	}
	return nil
}

// BusInfo returns information about a specific bus
func (c *Configuration) BusInfo(media vst3.MediaType, dir vst3.BusDirection, index int32) (vst3.BusInfo, error) {
	b := c.bus(dir, index)
	if media != vst3.MediaTypeAudio || b == nil {
		return vst3.BusInfo{}, vst3.ResultInvalidArgument
	}
	info := vst3.BusInfo{
		MediaType:    vst3.MediaTypeAudio,
		Direction:    b.Direction,
		ChannelCount: b.ChannelCount,
		Name:         b.Name,
		BusType:      b.BusType,
	}
	if b.IsActive {
		info.Flags |= vst3.BusDefaultActive
	}
	return info, nil
}

// ActivateBus changes the active state of a bus
func (c *Configuration) ActivateBus(media vst3.MediaType, dir vst3.BusDirection, index int32, state bool) error {
	b := c.bus(dir, index)
	if media != vst3.MediaTypeAudio || b == nil {
		return vst3.ResultInvalidArgument
	}
	b.IsActive = state
	return nil
}

// Layout is the channel count of every audio bus a host must provide.
type Layout struct {
	Inputs  []int32
	Outputs []int32
}

// ReadLayout asks a component for its audio buses.
func ReadLayout(c vst3.Component) (Layout, error) {
	var l Layout
	for _, dir := range []vst3.BusDirection{vst3.BusDirectionInput, vst3.BusDirectionOutput} {
		n := c.BusCount(vst3.MediaTypeAudio, dir)
		counts := make([]int32, n)
		for i := int32(0); i < n; i++ {
			info, err := c.BusInfo(vst3.MediaTypeAudio, dir, i)
			if err != nil {
				return Layout{}, fmt.Errorf("bus %d: %w", i, err)
			}
			counts[i] = info.ChannelCount
		}
		if dir == vst3.BusDirectionInput {
			l.Inputs = counts
		} else {
			l.Outputs = counts
		}
	}
	return l, nil
}

// InputChannels is the total input channel count
func (l Layout) InputChannels() int {
	return sum(l.Inputs)
}

// OutputChannels is the total output channel count
func (l Layout) OutputChannels() int {
	return sum(l.Outputs)
}

func sum(v []int32) int {
	n := 0
	for _, c := range v {
		n += int(c)
	}
	return n
}
