package host

import (
	"context"
	"sync"

	"github.com/justyntemme/vst3host/pkg/framework/bus"
	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// recorder is a stereo plugin that records what the host asks of it.
type recorder struct {
	*bus.Configuration

	mu     sync.Mutex
	calls  []string
	params map[vst3.ParamID]float64
	points [][]vst3.ParamPoint // points of param 0, per block

	rejectSetup bool
	// entered and release let a test hold a block in flight
	entered chan struct{}
	release chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		Configuration: bus.NewStereoConfiguration(),
		params:        make(map[vst3.ParamID]float64),
	}
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Initialize(interface{}) error         { r.record("initialize"); return nil }
func (r *recorder) Terminate() error                     { r.record("terminate"); return nil }
func (r *recorder) ControllerClassID() (vst3.TUID, bool) { return vst3.TUID{}, false }

func (r *recorder) SetActive(state bool) error {
	if state {
		r.record("setActive(true)")
	} else {
		r.record("setActive(false)")
	}
	return nil
}

func (r *recorder) QueryInterface(iid vst3.TUID) (interface{}, error) {
	switch iid {
	case vst3.IIDIComponent, vst3.IIDIAudioProcessor, vst3.IIDIEditController:
		return r, nil
	}
	return nil, vst3.ResultNoInterface
}

func (r *recorder) CanProcessSampleSize(s vst3.SymbolicSampleSize) error { return nil }
func (r *recorder) LatencySamples() uint32                               { return 16 }
func (r *recorder) TailSamples() uint32                                  { return 0 }

func (r *recorder) SetupProcessing(setup vst3.ProcessSetup) error {
	r.record("setupProcessing")
	if r.rejectSetup {
		return vst3.ResultFalse
	}
	return nil
}

func (r *recorder) SetProcessing(state bool) error {
	if state {
		r.record("setProcessing(true)")
	} else {
		r.record("setProcessing(false)")
	}
	return nil
}

func (r *recorder) Process(data *vst3.ProcessData) error {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	r.mu.Lock()
	if q := data.InputParameterChanges.Find(0); q != nil {
		pts := make([]vst3.ParamPoint, q.PointCount())
		for i := range pts {
			pts[i], _ = q.Point(int32(i))
		}
		r.points = append(r.points, pts)
	} else {
		r.points = append(r.points, nil)
	}
	r.mu.Unlock()
	for c := range data.Outputs[0].Channels {
		copy(data.Output(0, c), data.Input(0, c))
	}
	r.record("process")
	return nil
}

func (r *recorder) Points() [][]vst3.ParamPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]vst3.ParamPoint(nil), r.points...)
}

func (r *recorder) ParameterCount() int32 { return 1 }

func (r *recorder) ParameterInfo(i int32) (vst3.ParameterInfo, error) {
	if i != 0 {
		return vst3.ParameterInfo{}, vst3.ResultInvalidArgument
	}
	return vst3.ParameterInfo{ID: 0, Title: "Amount", Flags: vst3.ParameterCanAutomate}, nil
}

func (r *recorder) ParamNormalized(id vst3.ParamID) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params[id]
}

func (r *recorder) SetParamNormalized(id vst3.ParamID, v float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params[id] = v
	return nil
}

func (r *recorder) NormalizedToPlain(id vst3.ParamID, v float64) float64 { return v * 100 }
func (r *recorder) PlainToNormalized(id vst3.ParamID, v float64) float64 { return v / 100 }

type recorderModule struct {
	plugin *recorder
}

func (m *recorderModule) Path() string                { return "fake:recorder" }
func (m *recorderModule) Factory() vst3.PluginFactory { return m }
func (m *recorderModule) Close() error                { return nil }

func (m *recorderModule) Info() vst3.FactoryInfo { return vst3.FactoryInfo{Vendor: "test"} }
func (m *recorderModule) CountClasses() int32    { return 1 }

func (m *recorderModule) ClassInfo(i int32) (vst3.ClassInfo, error) {
	return vst3.ClassInfo{ID: vst3.InlineUID(1, 2, 3, 4), Category: vst3.CategoryAudioEffect, Name: "Recorder"}, nil
}

func (m *recorderModule) CreateComponent(vst3.TUID) (vst3.Component, error) {
	return m.plugin, nil
}

func (m *recorderModule) CreateController(vst3.TUID) (vst3.EditController, error) {
	return nil, vst3.ResultNotImplemented
}

// fakeLoader serves "fake:recorder" and sends everything else to next.
func fakeLoader(rec *recorder, next module.Loader) module.Loader {
	return module.LoaderFunc(func(ctx context.Context, path string) (module.Module, error) {
		if path == "fake:recorder" {
			return &recorderModule{plugin: rec}, nil
		}
		return next.Load(ctx, path)
	})
}

var splitControllerID = vst3.InlineUID(5, 6, 7, 8)

// splitComponent is a recorder whose controller lives in its own class.
type splitComponent struct {
	*recorder
}

func (c *splitComponent) QueryInterface(iid vst3.TUID) (interface{}, error) {
	switch iid {
	case vst3.IIDIComponent, vst3.IIDIAudioProcessor:
		return c, nil
	}
	return nil, vst3.ResultNoInterface
}

func (c *splitComponent) ControllerClassID() (vst3.TUID, bool) { return splitControllerID, true }

// splitController shares the recorder's parameters and call log.
type splitController struct {
	*recorder
	failInit bool
}

func (c *splitController) Initialize(interface{}) error {
	c.record("controller.initialize")
	if c.failInit {
		return vst3.ResultFalse
	}
	return nil
}

func (c *splitController) Terminate() error { c.record("controller.terminate"); return nil }
func (c *splitController) Release()         { c.record("controller.release") }

type splitModule struct {
	*recorderModule
	controller *splitController
}

func (m *splitModule) Path() string                { return "fake:split" }
func (m *splitModule) Factory() vst3.PluginFactory { return m }

func (m *splitModule) CreateComponent(vst3.TUID) (vst3.Component, error) {
	return &splitComponent{m.plugin}, nil
}

func (m *splitModule) CreateController(cid vst3.TUID) (vst3.EditController, error) {
	m.plugin.record("createController")
	if cid != splitControllerID {
		return nil, vst3.ResultInvalidArgument
	}
	return m.controller, nil
}

// splitLoader serves "fake:split", a plugin with a separate controller.
func splitLoader(rec *recorder, failInit bool) module.Loader {
	return module.LoaderFunc(func(ctx context.Context, path string) (module.Module, error) {
		return &splitModule{
			recorderModule: &recorderModule{plugin: rec},
			controller:     &splitController{recorder: rec, failInit: failInit},
		}, nil
	})
}

// controlOnly is a component without an audio processor whose
// terminate fails.
type controlOnly struct {
	*recorder
}

func (c *controlOnly) QueryInterface(iid vst3.TUID) (interface{}, error) {
	if iid == vst3.IIDIComponent {
		return c, nil
	}
	return nil, vst3.ResultNoInterface
}

func (c *controlOnly) Terminate() error { c.record("terminate"); return vst3.ResultFalse }

type controlOnlyModule struct {
	*recorderModule
}

func (m *controlOnlyModule) Factory() vst3.PluginFactory { return m }

func (m *controlOnlyModule) CreateComponent(vst3.TUID) (vst3.Component, error) {
	return &controlOnly{m.plugin}, nil
}
