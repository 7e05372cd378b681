package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/vst3host/pkg/host"
	"github.com/justyntemme/vst3host/pkg/observability"
)

// Default processing setup offered to scripts.
const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 512
)

// Runner executes scripts. Each run gets a fresh Lua state.
type Runner struct {
	host    *host.Host
	log     *logrus.Logger
	metrics *observability.Metrics

	sampleRate float64
	blockSize  int
	keepLoaded bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger scripts print to.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithMetrics counts runs.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithSetup sets the defaults initialize uses when a script omits them.
func WithSetup(sampleRate float64, blockSize int) Option {
	return func(r *Runner) {
		r.sampleRate = sampleRate
		r.blockSize = blockSize
	}
}

// WithKeepLoaded leaves plugins a script did not unload in the host.
// By default they are unloaded when the run ends.
func WithKeepLoaded(keep bool) Option {
	return func(r *Runner) {
		r.keepLoaded = keep
	}
}

// NewRunner creates a runner driving h.
func NewRunner(h *host.Host, opts ...Option) *Runner {
	r := &Runner{
		host:       h,
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.New()
	}
	return r
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func(L *lua.LState) error { return L.DoFile(path) })
}

// RunString executes code. name identifies it in logs.
func (r *Runner) RunString(ctx context.Context, name, code string) error {
	return r.run(ctx, name, func(L *lua.LState) error { return L.DoString(code) })
}

func (r *Runner) run(ctx context.Context, name string, exec func(*lua.LState) error) (err error) {
	runID := uuid.New()
	log := r.log.WithFields(logrus.Fields{"script": name, "run": runID})
	start := time.Now()

	L := newState()
	defer L.Close()
	L.SetContext(ctx)

	mod := NewModule(ctx, r.host, r.sampleRate, r.blockSize)
	mod.Register(L)
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		log.Info(strings.Join(parts, "\t"))
		return 0
	}))

	defer func() {
		if !r.keepLoaded {
			r.unloadOwned(mod, log)
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		if r.metrics != nil {
			r.metrics.ScriptRunsTotal.WithLabelValues(status).Inc()
		}
		log.WithFields(logrus.Fields{"status": status, "elapsed": time.Since(start)}).Debug("Script finished")
	}()

	log.Debug("Running script")
	return doWithRecovery(func() error {
		if err := exec(L); err != nil {
			var apiErr *lua.ApiError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("script %s: %s", name, apiErr.Object.String())
			}
			return fmt.Errorf("script %s: %w", name, err)
		}
		return nil
	})
}

// unloadOwned unloads what the run left loaded. It uses a fresh context
// so a cancelled run still cleans up.
func (r *Runner) unloadOwned(mod *Module, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, h := range mod.Owned() {
		if err := r.host.UnloadPlugin(ctx, h); err != nil {
			log.WithError(err).WithField("handle", h).Warn("Failed to unload plugin left by script")
			continue
		}
		log.WithField("handle", h).Debug("Unloaded plugin left by script")
	}
}

// newState opens only the safe standard libraries.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// doWithRecovery executes a function with panic recovery.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
