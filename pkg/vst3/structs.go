package vst3

import "fmt"

// ParamID identifies a parameter within one plugin.
type ParamID = uint32

// MediaType of a bus
type MediaType int32

const (
	MediaTypeAudio MediaType = 0
	MediaTypeEvent MediaType = 1
)

// BusDirection of a bus
type BusDirection int32

const (
	BusDirectionInput  BusDirection = 0
	BusDirectionOutput BusDirection = 1
)

// BusType of a bus
type BusType int32

const (
	BusTypeMain BusType = 0
	BusTypeAux  BusType = 1
)

// BusDefaultActive is set in BusInfo.Flags for buses active after creation.
const BusDefaultActive uint32 = 1 << 0

// ProcessMode tells the plugin how it is being driven.
type ProcessMode int32

const (
	ProcessModeRealtime ProcessMode = 0
	ProcessModePrefetch ProcessMode = 1
	ProcessModeOffline  ProcessMode = 2
)

// SymbolicSampleSize selects 32 or 64 bit samples.
type SymbolicSampleSize int32

const (
	Sample32 SymbolicSampleSize = 0
	Sample64 SymbolicSampleSize = 1
)

// ProcessSetup contains audio processing configuration
type ProcessSetup struct {
	ProcessMode        ProcessMode
	SymbolicSampleSize SymbolicSampleSize
	MaxSamplesPerBlock int32
	SampleRate         float64
}

// Validate rejects setups no plugin can accept.
func (s ProcessSetup) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %g", s.SampleRate)
	}
	if s.MaxSamplesPerBlock <= 0 {
		return fmt.Errorf("max block size must be positive, got %d", s.MaxSamplesPerBlock)
	}
	return nil
}

// ParameterInfo describes a parameter
type ParameterInfo struct {
	ID           ParamID
	Title        string
	ShortTitle   string
	Units        string
	StepCount    int32
	DefaultValue float64
	UnitID       int32
	Flags        int32
}

// Parameter flags
const (
	ParameterCanAutomate     int32 = 1 << 0
	ParameterIsReadOnly      int32 = 1 << 1
	ParameterIsWrapAround    int32 = 1 << 2
	ParameterIsList          int32 = 1 << 3
	ParameterIsHidden        int32 = 1 << 4
	ParameterIsProgramChange int32 = 1 << 15
	ParameterIsBypass        int32 = 1 << 16
)

// BusInfo describes an audio bus
type BusInfo struct {
	MediaType    MediaType
	Direction    BusDirection
	ChannelCount int32
	Name         string
	BusType      BusType
	Flags        uint32
}
