package vst3

// Component is the core object of a plugin class. It owns lifecycle and
// bus layout and hands out the processor and controller capabilities.
type Component interface {
	// IPluginBase methods
	Initialize(context interface{}) error
	Terminate() error

	// IComponent methods
	ControllerClassID() (TUID, bool)
	BusCount(media MediaType, dir BusDirection) int32
	BusInfo(media MediaType, dir BusDirection, index int32) (BusInfo, error)
	ActivateBus(media MediaType, dir BusDirection, index int32, state bool) error
	SetActive(state bool) error

	// QueryInterface returns the object implementing iid, or ResultNoInterface.
	QueryInterface(iid TUID) (interface{}, error)
}

// AudioProcessor represents the audio processing capability
type AudioProcessor interface {
	CanProcessSampleSize(size SymbolicSampleSize) error
	LatencySamples() uint32
	SetupProcessing(setup ProcessSetup) error
	SetProcessing(state bool) error
	Process(data *ProcessData) error
	TailSamples() uint32
}

// EditController represents the parameter control capability
type EditController interface {
	// IPluginBase methods
	Initialize(context interface{}) error
	Terminate() error

	ParameterCount() int32
	ParameterInfo(index int32) (ParameterInfo, error)
	ParamNormalized(id ParamID) float64
	SetParamNormalized(id ParamID, value float64) error
	NormalizedToPlain(id ParamID, normalized float64) float64
	PlainToNormalized(id ParamID, plain float64) float64
}

// PluginFactory enumerates and instantiates the classes of a module.
type PluginFactory interface {
	Info() FactoryInfo
	CountClasses() int32
	ClassInfo(index int32) (ClassInfo, error)
	CreateComponent(cid TUID) (Component, error)
	CreateController(cid TUID) (EditController, error)
}

// Preparer is implemented by processors that bind to host owned buffers
// once per setup instead of on every block.
type Preparer interface {
	PrepareProcessing(data *ProcessData) error
}

// Releaser is implemented by objects holding a reference that must be
// dropped after Terminate.
type Releaser interface {
	Release()
}

// QueryProcessor asks c for the audio processing capability.
func QueryProcessor(c Component) (AudioProcessor, bool) {
	obj, err := c.QueryInterface(IIDIAudioProcessor)
	if err != nil || obj == nil {
		return nil, false
	}
	p, ok := obj.(AudioProcessor)
	return p, ok
}

// QueryController asks c for a controller implemented on the same object.
func QueryController(c Component) (EditController, bool) {
	obj, err := c.QueryInterface(IIDIEditController)
	if err != nil || obj == nil {
		return nil, false
	}
	ec, ok := obj.(EditController)
	return ec, ok
}
