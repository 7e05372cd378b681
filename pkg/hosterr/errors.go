// Package hosterr defines the error taxonomy shared by the loader, the
// registry and the processing path.
//
// Every failure is an *Error carrying the operation, a Kind and, where one
// exists, the handle or path involved. Match with errors.Is against the
// sentinels:
//
//	if errors.Is(err, hosterr.ErrNotFound) { ... }
package hosterr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes an error.
type Kind string

const (
	// KindLoad means the module could not be opened or is not a plugin.
	KindLoad Kind = "load"

	// KindUnsupportedPlugin means the class has no audio processor.
	KindUnsupportedPlugin Kind = "unsupported_plugin"

	// KindSetup means the plugin rejected the processing setup.
	KindSetup Kind = "setup"

	// KindRepeatedSetup means setup was called again under the reject policy.
	KindRepeatedSetup Kind = "repeated_setup"

	// KindNotFound means the handle is not in the registry.
	KindNotFound Kind = "not_found"

	// KindNotActive means the instance cannot process in its current state.
	KindNotActive Kind = "not_active"

	// KindBuffer means the caller buffers do not match the bus layout.
	KindBuffer Kind = "buffer"

	// KindBusy means another goroutine is processing the same instance.
	KindBusy Kind = "busy"

	// KindHandlesExhausted means the handle counter would wrap.
	KindHandlesExhausted Kind = "handles_exhausted"

	// KindInternal covers plugin failures outside the other kinds.
	KindInternal Kind = "internal"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrLoad              = &Error{Kind: KindLoad}
	ErrUnsupportedPlugin = &Error{Kind: KindUnsupportedPlugin}
	ErrSetup             = &Error{Kind: KindSetup}
	ErrRepeatedSetup     = &Error{Kind: KindRepeatedSetup}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotActive         = &Error{Kind: KindNotActive}
	ErrBuffer            = &Error{Kind: KindBuffer}
	ErrBusy              = &Error{Kind: KindBusy}
	ErrHandlesExhausted  = &Error{Kind: KindHandlesExhausted}
	ErrInternal          = &Error{Kind: KindInternal}
)

var defaultMessages = map[Kind]string{
	KindLoad:              "cannot load plugin module",
	KindUnsupportedPlugin: "plugin does not support audio processing",
	KindSetup:             "failed to setup processing",
	KindRepeatedSetup:     "processing already set up",
	KindNotFound:          "invalid plugin handle",
	KindNotActive:         "plugin is not active",
	KindBuffer:            "buffers do not match bus layout",
	KindBusy:              "plugin is already processing",
	KindHandlesExhausted:  "no plugin handles left",
	KindInternal:          "plugin failure",
}

// Error is a structured host error.
type Error struct {
	// Op is the operation that failed, e.g. "loadPlugin".
	Op string

	// Kind categorizes the error.
	Kind Kind

	// Handle is the instance involved, zero when none.
	Handle uint32

	// Path is the module path involved, empty when none.
	Path string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("vst3host: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "(%s)", e.Kind)
	if e.Handle != 0 {
		fmt.Fprintf(&b, ": handle %d", e.Handle)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else if msg, ok := defaultMessages[e.Kind]; ok {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by op when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind == "" || t.Kind != e.Kind {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// New creates an error of the given kind.
func New(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewLoadError reports a module that cannot be used.
func NewLoadError(op, path string, err error) *Error {
	return &Error{Op: op, Kind: KindLoad, Path: path, Err: err}
}

// NewUnsupportedPluginError reports a class without a processor.
func NewUnsupportedPluginError(op, path string) *Error {
	return &Error{Op: op, Kind: KindUnsupportedPlugin, Path: path}
}

// NewSetupError reports a rejected processing setup.
func NewSetupError(op string, handle uint32, err error) *Error {
	return &Error{Op: op, Kind: KindSetup, Handle: handle, Err: err}
}

// NewNotFoundError reports an unknown handle.
func NewNotFoundError(op string, handle uint32) *Error {
	return &Error{Op: op, Kind: KindNotFound, Handle: handle}
}

// WithHandle returns a copy of e bound to handle.
func (e *Error) WithHandle(handle uint32) *Error {
	c := *e
	c.Handle = handle
	return &c
}
