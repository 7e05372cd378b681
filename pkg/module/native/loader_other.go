//go:build !linux

package native

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/module"
)

// Loader reports that native modules are unsupported on this platform.
type Loader struct {
	log *logrus.Logger
}

// NewLoader creates a native loader.
func NewLoader(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{log: log}
}

// Load implements module.Loader.
func (l *Loader) Load(ctx context.Context, path string) (module.Module, error) {
	return nil, fmt.Errorf("native modules are not supported on %s", runtime.GOOS)
}
