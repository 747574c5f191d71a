package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, DefaultRegistry is used.
	Registry prometheus.Registerer

	// Namespace overrides the default "slidegate" namespace for metrics.
	Namespace string
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: "slidegate",
	}
}

// Instrumentable is an interface for components that can be instrumented with metrics.
type Instrumentable interface {
	// EnableMetrics enables metrics collection for this component.
	EnableMetrics(config Config) error

	// DisableMetrics disables metrics collection for this component.
	DisableMetrics()

	// MetricsEnabled returns true if metrics are currently enabled.
	MetricsEnabled() bool
}

type registryKey struct {
	reg       prometheus.Registerer
	namespace string
}

var (
	registriesMu sync.Mutex
	registries   = map[registryKey]*Registry{}
)

// RegistryFor returns the Registry for config, creating its collectors on
// first use. Components sharing a Registerer and namespace share collectors.
func RegistryFor(config Config) *Registry {
	if config.Registry == nil {
		return DefaultRegistry
	}
	namespace := config.Namespace
	if namespace == "" {
		namespace = "slidegate"
	}
	if config.Registry == prometheus.DefaultRegisterer && namespace == "slidegate" {
		return DefaultRegistry
	}

	registriesMu.Lock()
	defer registriesMu.Unlock()

	key := registryKey{reg: config.Registry, namespace: namespace}
	if r, ok := registries[key]; ok {
		return r
	}
	r := NewRegistryWithNamespace(config.Registry, namespace)
	registries[key] = r
	return r
}
