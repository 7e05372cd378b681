package hosterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"not found", NewNotFoundError("getParameter", 1), ErrNotFound, true},
		{"load", NewLoadError("loadPlugin", "/x.vst3", errors.New("boom")), ErrLoad, true},
		{"setup", NewSetupError("initialize", 2, nil), ErrSetup, true},
		{"unsupported", NewUnsupportedPluginError("loadPlugin", "/x"), ErrUnsupportedPlugin, true},
		{"kind mismatch", NewNotFoundError("getParameter", 1), ErrSetup, false},
		{"wrapped", fmt.Errorf("outer: %w", NewNotFoundError("process", 3)), ErrNotFound, true},
		{"plain error", errors.New("x"), ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestErrorMatchesOp(t *testing.T) {
	err := NewNotFoundError("unloadPlugin", 4)
	assert.True(t, errors.Is(err, &Error{Op: "unloadPlugin", Kind: KindNotFound}))
	assert.False(t, errors.Is(err, &Error{Op: "getParameter", Kind: KindNotFound}))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "vst3host: getParameter (not_found): handle 1: invalid plugin handle",
		NewNotFoundError("getParameter", 1).Error())

	cause := errors.New("no such file")
	err := NewLoadError("loadPlugin", "/plugins/a.vst3", cause)
	assert.Equal(t, "vst3host: loadPlugin (load): /plugins/a.vst3: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSetup, KindOf(fmt.Errorf("x: %w", NewSetupError("initialize", 1, nil))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestWithHandle(t *testing.T) {
	base := New("process", KindBusy, nil)
	bound := base.WithHandle(9)
	assert.Equal(t, uint32(0), base.Handle)
	assert.Equal(t, uint32(9), bound.Handle)
	assert.ErrorIs(t, bound, ErrBusy)
}
