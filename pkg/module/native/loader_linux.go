//go:build linux

package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"

	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Loader opens VST3 binaries with dlopen.
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

// Load implements module.Loader. path is a .vst3 bundle or a shared object.
func (l *Loader) Load(ctx context.Context, path string) (module.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	binary, err := BinaryPath(path)
	if err != nil {
		return nil, err
	}

	lib, err := purego.Dlopen(binary, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", binary, err)
	}

	m := &nativeModule{path: path, lib: lib, log: l.log}
	if entry, err := purego.Dlsym(lib, "ModuleEntry"); err == nil {
		r, _, _ := purego.SyscallN(entry, lib)
		if uint8(r) == 0 {
			_ = purego.Dlclose(lib)
			return nil, fmt.Errorf("%s: ModuleEntry failed", binary)
		}
		m.entered = true
	}

	get, err := purego.Dlsym(lib, "GetPluginFactory")
	if err != nil {
		m.exit()
		return nil, fmt.Errorf("%s: no GetPluginFactory export: %w", binary, err)
	}
	r, _, _ := purego.SyscallN(get)
	if r == 0 {
		m.exit()
		return nil, fmt.Errorf("%s: GetPluginFactory returned null", binary)
	}
	m.factory = &factory{obj: object(r)}

	l.log.WithFields(logrus.Fields{
		"path":    path,
		"binary":  binary,
		"vendor":  m.factory.Info().Vendor,
		"classes": m.factory.CountClasses(),
	}).Debug("Opened native module")
	return m, nil
}

type nativeModule struct {
	path    string
	lib     uintptr
	factory *factory
	entered bool
	log     *logrus.Logger
	once    sync.Once
}

func (m *nativeModule) Path() string { return m.path }

func (m *nativeModule) Factory() vst3.PluginFactory { return m.factory }

func (m *nativeModule) Close() error {
	var err error
	m.once.Do(func() {
		if m.factory != nil {
			m.factory.obj.release()
		}
		err = m.exit()
	})
	return err
}

func (m *nativeModule) exit() error {
	if m.entered {
		if fn, err := purego.Dlsym(m.lib, "ModuleExit"); err == nil {
			purego.SyscallN(fn)
		}
	}
	if err := purego.Dlclose(m.lib); err != nil {
		m.log.WithError(err).WithField("path", m.path).Warn("dlclose failed")
		return err
	}
	return nil
}
