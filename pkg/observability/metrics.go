package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the host's prometheus collectors.
type Metrics struct {
	// Instance lifecycle
	LoadsTotal      *prometheus.CounterVec
	UnloadsTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	InstancesActive prometheus.Gauge
	ModulesOpen     prometheus.Gauge

	// Processing
	BlocksTotal     prometheus.Counter
	BlockDuration   prometheus.Histogram
	ParamDropsTotal prometheus.Counter

	// Front ends
	ScriptRunsTotal *prometheus.CounterVec
	RenderFrames    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers every collector on registry. A nil
// registry gets a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vst3host_plugin_loads_total",
				Help: "Plugin load attempts",
			},
			[]string{"status"},
		),
		UnloadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_plugin_unloads_total",
			Help: "Plugins unloaded",
		}),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vst3host_errors_total",
				Help: "Failed operations by operation and error kind",
			},
			[]string{"op", "kind"},
		),
		InstancesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vst3host_instances",
			Help: "Plugin instances in the registry",
		}),
		BlocksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_blocks_total",
			Help: "Audio blocks processed",
		}),
		BlockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vst3host_block_duration_seconds",
			Help:    "Time spent in one plugin process call",
			Buckets: prometheus.ExponentialBuckets(10e-6, 2, 14),
		}),
		ParamDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_param_changes_dropped_total",
			Help: "Parameter changes dropped because the queue was full",
		}),
		ModulesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vst3host_modules_open",
			Help: "Plugin modules held open",
		}),
		ScriptRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vst3host_script_runs_total",
				Help: "Lua script runs",
			},
			[]string{"status"},
		),
		RenderFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_render_frames_total",
			Help: "Frames rendered by offline jobs",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.LoadsTotal,
		m.UnloadsTotal,
		m.ErrorsTotal,
		m.InstancesActive,
		m.BlocksTotal,
		m.BlockDuration,
		m.ParamDropsTotal,
		m.ModulesOpen,
		m.ScriptRunsTotal,
		m.RenderFrames,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBlock records one process call. It neither locks nor allocates.
func (m *Metrics) ObserveBlock(d time.Duration) {
	m.BlocksTotal.Inc()
	m.BlockDuration.Observe(d.Seconds())
}

// RecordError counts a failed operation.
func (m *Metrics) RecordError(op, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.ErrorsTotal.WithLabelValues(op, kind).Inc()
}
