package host

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/module/builtin"
	"github.com/justyntemme/vst3host/pkg/module/native"
	"github.com/justyntemme/vst3host/pkg/observability"
)

// SetupPolicy decides what a second Initialize on a configured instance
// does.
type SetupPolicy string

const (
	// PolicyReconfigure stops, deactivates and sets the instance up again.
	PolicyReconfigure SetupPolicy = "reconfigure"
	// PolicyReject fails with a RepeatedSetup error.
	PolicyReject SetupPolicy = "reject"
)

// ParseSetupPolicy parses a policy name.
func ParseSetupPolicy(s string) (SetupPolicy, error) {
	switch p := SetupPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReconfigure, PolicyReject:
		return p, nil
	case "":
		return PolicyReconfigure, nil
	default:
		return "", fmt.Errorf("unknown setup policy %q", s)
	}
}

// Defaults for Options.
const (
	DefaultQueueCapacity = 1024
	DefaultRampSlots     = 64
	DefaultModuleCache   = 8

	// MaxBlockSize bounds the block size Initialize accepts.
	MaxBlockSize = 1 << 16
)

// Options configures a Host. The zero value is usable.
type Options struct {
	// Loader opens modules. Defaults to DefaultLoader.
	Loader module.Loader
	// ModuleCache is the number of unreferenced modules kept open. Zero
	// closes a module with its last instance; negative uses
	// DefaultModuleCache.
	ModuleCache int
	// Logger defaults to logrus.New().
	Logger *logrus.Logger
	// Metrics is optional.
	Metrics *observability.Metrics
	// Tracer defaults to the global otel tracer.
	Tracer trace.Tracer
	// SetupPolicy defaults to PolicyReconfigure.
	SetupPolicy SetupPolicy
	// QueueCapacity is the per instance parameter queue length.
	QueueCapacity int
	// RampSlots is the number of parameters that can ramp at once.
	RampSlots int
	// RampMs is the ramp length applied by SetParameter. Zero applies
	// changes at the start of the next block.
	RampMs float64
	// Offline sets up instances for non-realtime processing.
	Offline bool
}

func (o *Options) withDefaults() {
	if o.Logger == nil {
		o.Logger = logrus.New()
	}
	if o.Loader == nil {
		o.Loader = DefaultLoader(nil, o.Logger)
	}
	if o.ModuleCache < 0 {
		o.ModuleCache = DefaultModuleCache
	}
	if o.Tracer == nil {
		o.Tracer = observability.Tracer()
	}
	if o.SetupPolicy == "" {
		o.SetupPolicy = PolicyReconfigure
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.RampSlots <= 0 {
		o.RampSlots = DefaultRampSlots
	}
}

// DefaultLoader resolves "builtin:" paths to the builtin catalog, aliases
// to their targets and everything else to the native loader.
func DefaultLoader(aliases map[string]string, log *logrus.Logger) *module.Resolver {
	r := module.NewResolver(native.NewLoader(log), log)
	r.Handle(builtin.Scheme, builtin.DefaultCatalog())
	for path, target := range aliases {
		r.Alias(path, target)
	}
	return r
}
