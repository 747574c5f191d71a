// Package metrics provides Prometheus instrumentation for slidegate components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for slidegate components.
type Registry struct {
	// Sliding window limiter metrics
	WindowAdmissions *prometheus.CounterVec
	WindowDelayed    *prometheus.CounterVec
	WindowReleases   *prometheus.CounterVec
	WindowWaitTime   *prometheus.HistogramVec
	WindowTracked    *prometheus.GaugeVec

	// Remote document client metrics
	DocumentRequests *prometheus.CounterVec
	DocumentDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by slidegate components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithNamespace(reg, "slidegate")
}

// NewRegistryWithNamespace is NewRegistry with a custom metric namespace.
func NewRegistryWithNamespace(reg prometheus.Registerer, namespace string) *Registry {
	if namespace == "" {
		namespace = "slidegate"
	}
	factory := promauto.With(reg)

	return &Registry{
		WindowAdmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "window",
				Name:      "admissions_total",
				Help:      "Total number of admissions granted by the sliding window limiter",
			},
			[]string{"limiter_name"},
		),

		WindowDelayed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "window",
				Name:      "delayed_total",
				Help:      "Total number of admissions that had to wait before starting",
			},
			[]string{"limiter_name"},
		),

		WindowReleases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "window",
				Name:      "releases_total",
				Help:      "Total number of released admissions",
			},
			[]string{"limiter_name"},
		),

		WindowWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "window",
				Name:      "wait_duration_seconds",
				Help:      "Wait computed for each admission",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limiter_name"},
		),

		WindowTracked: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "window",
				Name:      "tracked",
				Help:      "Number of admissions currently tracked by the limiter",
			},
			[]string{"limiter_name"},
		),

		DocumentRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "document",
				Name:      "requests_total",
				Help:      "Total number of document creation calls by outcome",
			},
			[]string{"outcome"},
		),

		DocumentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "document",
				Name:      "request_duration_seconds",
				Help:      "Duration of document creation calls, excluding limiter wait",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}
