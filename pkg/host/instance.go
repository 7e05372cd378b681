package host

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/rt"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// State is the processing state of an instance.
type State int32

const (
	// StateCreated is a loaded instance without a processing setup.
	StateCreated State = iota
	// StateConfigured has a setup but is not processing.
	StateConfigured
	// StateActive accepts process calls.
	StateActive
	// StateReleased has been unloaded.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Capabilities is computed once at instantiation.
type Capabilities struct {
	HasProcessor  bool `json:"has_processor"`
	HasController bool `json:"has_controller"`
}

// Setup is the processing setup an instance was configured with.
type Setup struct {
	SampleRate   float64 `json:"sample_rate"`
	MaxBlockSize int     `json:"max_block_size"`
	Realtime     bool    `json:"realtime"`
}

// Instance is one loaded plugin. It is owned by the Registry; callers
// address it through its Handle.
type Instance struct {
	handle  Handle
	path    string
	class   vst3.ClassInfo
	vendor  string
	session uuid.UUID
	loaded  time.Time

	component  vst3.Component
	processor  vst3.AudioProcessor
	controller vst3.EditController
	// separateController is set when the controller is its own object
	// that the host initialized.
	separateController bool
	caps               Capabilities

	state atomic.Int32
	// componentActive tracks setActive between Configured and Active
	componentActive bool
	setup           Setup
	layout          bus.Layout

	// audio side, replaced only while the gate is closed
	gate   rt.Gate
	ring   *rt.Ring
	engine *engine
}

// Handle returns the instance handle.
func (i *Instance) Handle() Handle { return i.handle }

// Path returns the path the instance was loaded from.
func (i *Instance) Path() string { return i.path }

// Class returns the plugin class.
func (i *Instance) Class() vst3.ClassInfo { return i.class }

// Session identifies this load of the plugin in logs and traces.
func (i *Instance) Session() uuid.UUID { return i.session }

// Capabilities returns the capability descriptor.
func (i *Instance) Capabilities() Capabilities { return i.caps }

// State returns the current state.
func (i *Instance) State() State { return State(i.state.Load()) }

func (i *Instance) setState(s State) { i.state.Store(int32(s)) }

// Setup returns the last accepted processing setup.
func (i *Instance) Setup() Setup { return i.setup }

// Layout returns the audio bus layout read at setup.
func (i *Instance) Layout() bus.Layout { return i.layout }
