package window

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/slidegate/pkg/metrics"
)

// MetricsLimiter wraps a sliding window Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a new sliding window limiter with metrics enabled.
// It panics on invalid arguments, like New.
func NewWithMetrics(window time.Duration, capacity int, name string) Limiter {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	config := metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	}

	l, err := NewWithConfigAndMetrics(Config{
		Window:   window,
		Capacity: capacity,
		Clock:    SystemClock{},
	}, name, config)
	if err != nil {
		panic("invalid window limiter configuration: " + err.Error())
	}
	return l
}

// NewWithConfigAndMetrics creates a new sliding window limiter with custom config and metrics.
// When metricsConfig is disabled the plain limiter is returned.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	baseLimiter, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return baseLimiter, nil
	}

	ml := &MetricsLimiter{
		limiter: baseLimiter,
		name:    name,
	}
	ml.registry.Store(metrics.RegistryFor(metricsConfig))
	ml.enabled.Store(true)
	ml.updateTracked()

	return ml, nil
}

// Acquire records a new admission and returns how long the caller must wait.
func (ml *MetricsLimiter) Acquire() time.Duration {
	wait := ml.limiter.Acquire()
	ml.recordAdmission(wait)
	return wait
}

// Release forgets the oldest tracked admission.
func (ml *MetricsLimiter) Release() {
	ml.limiter.Release()
	ml.recordRelease()
}

// Reserve records a new admission and returns a Reservation for it.
func (ml *MetricsLimiter) Reserve() *Reservation {
	r := ml.limiter.Reserve()
	ml.recordAdmission(r.Delay())

	r.onRelease = func(removed bool) {
		if removed {
			ml.recordRelease()
		}
	}
	return r
}

// Wait reserves an admission and blocks until it may start.
func (ml *MetricsLimiter) Wait(ctx context.Context) (*Reservation, error) {
	return waitFor(ctx, ml.Reserve)
}

// Do waits for admission, runs fn and schedules the release.
func (ml *MetricsLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return runScoped(ctx, ml.Wait, fn)
}

// Window returns the length of the sliding interval.
func (ml *MetricsLimiter) Window() time.Duration {
	return ml.limiter.Window()
}

// Capacity returns the maximum number of admissions per window.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Tracked returns the number of admissions not yet released.
func (ml *MetricsLimiter) Tracked() int {
	return ml.limiter.Tracked()
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		ml.registry.Store(metrics.RegistryFor(config))
	}
	ml.enabled.Store(config.Enabled)
	ml.updateTracked()
	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled.Load()
}

func (ml *MetricsLimiter) recordAdmission(wait time.Duration) {
	if !ml.enabled.Load() {
		return
	}
	reg := ml.registry.Load()

	reg.WindowAdmissions.WithLabelValues(ml.name).Inc()
	if wait > 0 {
		reg.WindowDelayed.WithLabelValues(ml.name).Inc()
	}
	reg.WindowWaitTime.WithLabelValues(ml.name).Observe(wait.Seconds())
	reg.WindowTracked.WithLabelValues(ml.name).Set(float64(ml.limiter.Tracked()))
}

func (ml *MetricsLimiter) recordRelease() {
	if !ml.enabled.Load() {
		return
	}
	reg := ml.registry.Load()

	reg.WindowReleases.WithLabelValues(ml.name).Inc()
	reg.WindowTracked.WithLabelValues(ml.name).Set(float64(ml.limiter.Tracked()))
}

func (ml *MetricsLimiter) updateTracked() {
	if !ml.enabled.Load() {
		return
	}
	ml.registry.Load().WindowTracked.WithLabelValues(ml.name).Set(float64(ml.limiter.Tracked()))
}

var (
	_ Limiter                = (*MetricsLimiter)(nil)
	_ metrics.Instrumentable = (*MetricsLimiter)(nil)
)
