// Package host owns loaded plugin instances and exposes the operations a
// scripting front end drives: load, unload, initialize, parameters and
// processing.
//
// Control operations serialize on the Host mutex. Process never takes it:
// it reads the registry snapshot, claims the instance gate and hands
// parameter changes over a lock-free ring.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/justyntemme/vst3host/pkg/hosterr"
	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/observability"
	"github.com/justyntemme/vst3host/pkg/rt"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Host is the plugin host service.
type Host struct {
	mu       sync.Mutex
	registry *Registry
	cache    *module.Cache
	opts     Options
	log      *logrus.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// New creates a host.
func New(opts Options) (*Host, error) {
	opts.withDefaults()
	if _, err := ParseSetupPolicy(string(opts.SetupPolicy)); err != nil {
		return nil, err
	}
	cache, err := module.NewCache(opts.Loader, opts.ModuleCache, opts.Logger)
	if err != nil {
		return nil, err
	}
	return &Host{
		registry: NewRegistry(),
		cache:    cache,
		opts:     opts,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
	}, nil
}

// Registry returns the instance registry.
func (h *Host) Registry() *Registry {
	return h.registry
}

func (h *Host) fail(op string, err error) error {
	if h.metrics != nil {
		h.metrics.RecordError(op, string(hosterr.KindOf(err)))
	}
	return err
}

// lookup finds handle for op.
func (h *Host) lookup(op string, handle Handle) (*Instance, error) {
	if inst, ok := h.registry.Get(handle); ok {
		return inst, nil
	}
	return nil, h.fail(op, hosterr.NewNotFoundError(op, uint32(handle)))
}

func (h *Host) updateGauges() {
	if h.metrics == nil {
		return
	}
	h.metrics.InstancesActive.Set(float64(h.registry.Len()))
	open, idle := h.cache.Stats()
	h.metrics.ModulesOpen.Set(float64(open + idle))
}

// LoadPlugin opens the module at path, instantiates its audio class and
// registers it. A "#Name" suffix selects a class by name, on the path or
// on the alias target it resolves to.
func (h *Host) LoadPlugin(ctx context.Context, path string) (handle Handle, err error) {
	const op = "loadPlugin"
	ctx, span := h.tracer.Start(ctx, "host.LoadPlugin", trace.WithAttributes(attribute.String("path", path)))
	defer func() {
		span.SetAttributes(attribute.Int64("handle", int64(handle)))
		observability.EndSpan(span, err)
		if h.metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			h.metrics.LoadsTotal.WithLabelValues(status).Inc()
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, h.fail(op, hosterr.NewLoadError(op, path, err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.registry.Exhausted() {
		return 0, h.fail(op, &hosterr.Error{Op: op, Kind: hosterr.KindHandlesExhausted, Path: path})
	}

	mod, err := h.cache.Acquire(ctx, path)
	if err != nil {
		return 0, h.fail(op, hosterr.NewLoadError(op, path, err))
	}
	inst, err := h.instantiate(op, path, mod)
	if err != nil {
		h.cache.Release(path)
		return 0, h.fail(op, err)
	}

	handle, err = h.registry.Register(inst)
	if err != nil {
		h.teardown(inst)
		h.cache.Release(path)
		return 0, h.fail(op, err)
	}
	h.updateGauges()

	h.log.WithFields(logrus.Fields{
		"handle":     handle,
		"path":       path,
		"class":      inst.class.Name,
		"session":    inst.session,
		"controller": inst.caps.HasController,
	}).Info("Loaded plugin")
	return handle, nil
}

// instantiate creates, initializes and probes one component. On failure
// everything it initialized is terminated again.
func (h *Host) instantiate(op, path string, mod module.Module) (*Instance, error) {
	factory := mod.Factory()
	className := module.ClassSelector(h.opts.Loader, path)
	class, ok := module.FindClass(factory, className)
	if !ok {
		if className != "" {
			return nil, hosterr.NewLoadError(op, path, errors.New("no audio class named "+className))
		}
		return nil, hosterr.NewLoadError(op, path, errors.New("module has no audio class"))
	}

	comp, err := factory.CreateComponent(class.ID)
	if err != nil {
		return nil, hosterr.NewLoadError(op, path, err)
	}
	if err := comp.Initialize(nil); err != nil {
		release(comp)
		return nil, hosterr.NewLoadError(op, path, err)
	}

	proc, ok := vst3.QueryProcessor(comp)
	if !ok {
		if err := comp.Terminate(); err != nil {
			h.log.WithError(err).WithField("path", path).Debug("Component terminate failed")
		}
		release(comp)
		return nil, hosterr.NewUnsupportedPluginError(op, path)
	}

	inst := &Instance{
		path:      path,
		class:     class,
		vendor:    factory.Info().Vendor,
		session:   uuid.New(),
		loaded:    time.Now(),
		component: comp,
		processor: proc,
		ring:      rt.NewRing(h.opts.QueueCapacity),
	}
	inst.controller, inst.separateController = h.findController(factory, comp, path)
	inst.caps = Capabilities{HasProcessor: true, HasController: inst.controller != nil}
	inst.setState(StateCreated)
	return inst, nil
}

// findController returns the component's controller, creating it from
// its own class when the component names one. A missing controller is
// not an error.
func (h *Host) findController(factory vst3.PluginFactory, comp vst3.Component, path string) (vst3.EditController, bool) {
	if ctrl, ok := vst3.QueryController(comp); ok {
		return ctrl, false
	}
	log := h.log.WithField("path", path)

	cid, ok := comp.ControllerClassID()
	if !ok {
		log.Debug("Plugin has no edit controller")
		return nil, false
	}
	ctrl, err := factory.CreateController(cid)
	if err != nil {
		log.WithError(err).Debug("Cannot create edit controller")
		return nil, false
	}
	if err := ctrl.Initialize(nil); err != nil {
		log.WithError(err).Debug("Edit controller failed to initialize")
		release(ctrl)
		return nil, false
	}
	return ctrl, true
}

func release(obj interface{}) {
	if r, ok := obj.(vst3.Releaser); ok {
		r.Release()
	}
}

// UnloadPlugin waits for any block in flight, shuts the instance down and
// removes it. Unloading an unknown handle fails with NotFound and changes
// nothing.
func (h *Host) UnloadPlugin(ctx context.Context, handle Handle) (err error) {
	const op = "unloadPlugin"
	ctx, span := h.tracer.Start(ctx, "host.UnloadPlugin", trace.WithAttributes(attribute.Int64("handle", int64(handle))))
	defer func() { observability.EndSpan(span, err) }()

	h.mu.Lock()
	defer h.mu.Unlock()

	inst, err := h.lookup(op, handle)
	if err != nil {
		return err
	}
	if err := inst.gate.Close(ctx); err != nil {
		return h.fail(op, hosterr.New(op, hosterr.KindBusy, err).WithHandle(uint32(handle)))
	}
	if _, err := h.registry.Unregister(handle); err != nil {
		inst.gate.Open()
		return h.fail(op, err)
	}

	h.teardown(inst)
	h.cache.Release(inst.path)
	h.updateGauges()
	if h.metrics != nil {
		h.metrics.UnloadsTotal.Inc()
	}

	h.log.WithFields(logrus.Fields{
		"handle":  handle,
		"path":    inst.path,
		"session": inst.session,
	}).Info("Unloaded plugin")
	return nil
}

// teardown stops processing, deactivates and terminates inst. Plugin
// errors are logged; the instance is released regardless.
func (h *Host) teardown(inst *Instance) {
	log := h.log.WithFields(logrus.Fields{"handle": inst.handle, "path": inst.path})
	h.deactivate(inst)
	if inst.controller != nil && inst.separateController {
		if err := inst.controller.Terminate(); err != nil {
			log.WithError(err).Debug("Controller terminate failed")
		}
		release(inst.controller)
	}
	if err := inst.component.Terminate(); err != nil {
		log.WithError(err).Debug("Component terminate failed")
	}
	release(inst.component)
	inst.engine = nil
	inst.setState(StateReleased)
}

// Close unloads every instance and closes idle modules.
func (h *Host) Close(ctx context.Context) error {
	var errs []error
	for _, handle := range h.registry.Handles() {
		if err := h.UnloadPlugin(ctx, handle); err != nil && !errors.Is(err, hosterr.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	h.cache.Purge()
	h.updateGauges()
	return errors.Join(errs...)
}

// Classes lists the classes of the module at path without instantiating
// any of them.
func (h *Host) Classes(ctx context.Context, path string) ([]vst3.ClassInfo, vst3.FactoryInfo, error) {
	const op = "classes"
	mod, err := h.cache.Acquire(ctx, path)
	if err != nil {
		return nil, vst3.FactoryInfo{}, h.fail(op, hosterr.NewLoadError(op, path, err))
	}
	defer h.cache.Release(path)
	return module.Classes(mod.Factory()), mod.Factory().Info(), nil
}
