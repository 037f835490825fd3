// Package metrics provides Prometheus metrics for the dispatch layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the dispatch layer.
type Collector struct {
	// Client-side dispatch metrics
	CallsTotal    *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	CallFailures  *prometheus.CounterVec
	CallsInFlight prometheus.Gauge

	// Session metrics
	SessionsResolved *prometheus.CounterVec

	// Serving-side metrics
	ServedTotal *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return newWith(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a collector registered on a custom registry
// (used in tests to avoid duplicate registration).
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return newWith(promauto.With(reg))
}

func newWith(factory promauto.Factory) *Collector {
	return &Collector{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Subsystem: "a2a",
				Name:      "calls_total",
				Help:      "Total number of module calls dispatched",
			},
			[]string{"module", "operation", "mode", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "visionxtract",
				Subsystem: "a2a",
				Name:      "call_duration_seconds",
				Help:      "Module call duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"module", "operation", "mode"},
		),
		CallFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Subsystem: "a2a",
				Name:      "call_failures_total",
				Help:      "Total number of failed module calls, by failure kind",
			},
			[]string{"module", "kind"},
		),
		CallsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "visionxtract",
				Subsystem: "a2a",
				Name:      "calls_in_flight",
				Help:      "Number of module calls currently in flight",
			},
		),
		SessionsResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Subsystem: "a2a",
				Name:      "sessions_resolved_total",
				Help:      "Client sessions opened, by module and resolved mode",
			},
			[]string{"module", "mode"},
		),
		ServedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Subsystem: "serve",
				Name:      "requests_total",
				Help:      "Module operations served over HTTP",
			},
			[]string{"module", "operation", "status"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "visionxtract",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed configuration reloads",
			},
		),
	}
}
