package threadpool

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/threadpool/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a pool with metrics enabled, registered on a
// dedicated Prometheus registry.
func NewWithMetrics(config Config, name string) *MetricsPool {
	// Use a separate registry for each metrics-enabled pool to avoid conflicts
	return NewWithConfigAndMetrics(config, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a pool with custom config and metrics.
// Lifecycle hooks already present in config are still called.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) *MetricsPool {
	if config.Name == "" {
		config.Name = name
	}

	mp := &MetricsPool{name: name}
	mp.enabled.Store(metricsConfig.Enabled)

	mp.registry.Store(registryFor(metricsConfig))

	onStart, onStop, onLost := config.OnPoolStart, config.OnPoolStop, config.OnWorkerLost
	config.OnPoolStart = func(generation uint64, size int) {
		if r := mp.activeRegistry(); r != nil {
			r.PoolStarts.WithLabelValues(mp.name).Inc()
			r.PoolSize.WithLabelValues(mp.name).Set(float64(size))
			r.PoolIdle.WithLabelValues(mp.name).Set(float64(size))
		}
		if onStart != nil {
			onStart(generation, size)
		}
	}
	config.OnPoolStop = func(generation uint64) {
		if r := mp.activeRegistry(); r != nil {
			r.PoolStops.WithLabelValues(mp.name).Inc()
			// A submit during the drain may already have started the next
			// generation; its gauges stand.
			if mp.pool.Stats().Generation == generation {
				r.PoolSize.WithLabelValues(mp.name).Set(0)
				r.PoolIdle.WithLabelValues(mp.name).Set(0)
				r.PoolQueued.WithLabelValues(mp.name).Set(0)
			}
		}
		if onStop != nil {
			onStop(generation)
		}
	}
	config.OnWorkerLost = func(workerID int) {
		if r := mp.activeRegistry(); r != nil {
			r.WorkersLost.WithLabelValues(mp.name).Inc()
		}
		if onLost != nil {
			onLost(workerID)
		}
	}

	mp.pool = New(config)
	return mp
}

// registryFor returns the registry to record into. The default registerer
// already holds metrics.DefaultRegistry, so it is reused rather than
// registered twice.
func registryFor(config metrics.Config) *metrics.Registry {
	if config.Registry == nil || config.Registry == prometheus.DefaultRegisterer {
		return metrics.DefaultRegistry
	}
	return metrics.NewRegistryWithConfig(config)
}

func (mp *MetricsPool) activeRegistry() *metrics.Registry {
	if !mp.enabled.Load() {
		return nil
	}
	return mp.registry.Load()
}

// updateMetrics updates the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	r := mp.activeRegistry()
	if r == nil {
		return
	}

	s := mp.pool.Stats()
	if !s.Started {
		return
	}
	r.PoolSize.WithLabelValues(mp.name).Set(float64(s.Size))
	r.PoolIdle.WithLabelValues(mp.name).Set(float64(s.Idle))
	r.PoolQueued.WithLabelValues(mp.name).Set(float64(s.Queued))
}

// Start implements Pool.
func (mp *MetricsPool) Start() error {
	err := mp.pool.Start()
	mp.updateMetrics()
	return err
}

// Submit wraps work to record queue wait and execution time, then submits it.
func (mp *MetricsPool) Submit(j *Job, work func()) error {
	wrapped := work
	if work != nil {
		queuedAt := time.Now()
		wrapped = func() {
			start := time.Now()
			if r := mp.activeRegistry(); r != nil {
				r.JobQueueWait.WithLabelValues(mp.name).Observe(start.Sub(queuedAt).Seconds())
			}

			work()

			if r := mp.activeRegistry(); r != nil {
				r.JobExecutionSeconds.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
				r.JobsExecuted.WithLabelValues(mp.name).Inc()
			}
		}
	}

	err := mp.pool.Submit(j, wrapped)
	if err == nil {
		if r := mp.activeRegistry(); r != nil {
			r.JobsSubmitted.WithLabelValues(mp.name).Inc()
		}
	}
	mp.updateMetrics()
	return err
}

// Cancel implements Pool and counts both outcomes.
func (mp *MetricsPool) Cancel(j *Job) bool {
	ok := mp.pool.Cancel(j)
	if r := mp.activeRegistry(); r != nil {
		if ok {
			r.JobsCancelled.WithLabelValues(mp.name).Inc()
		} else {
			r.CancelTooLate.WithLabelValues(mp.name).Inc()
		}
	}
	mp.updateMetrics()
	return ok
}

// Shutdown implements Pool.
func (mp *MetricsPool) Shutdown() {
	mp.pool.Shutdown()
}

// Size implements Pool.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// Stats implements Pool and refreshes the state gauges.
func (mp *MetricsPool) Stats() Stats {
	s := mp.pool.Stats()
	if r := mp.activeRegistry(); r != nil && s.Started {
		r.PoolIdle.WithLabelValues(mp.name).Set(float64(s.Idle))
		r.PoolQueued.WithLabelValues(mp.name).Set(float64(s.Queued))
	}
	return s
}

// Registry returns the metrics registry in use.
func (mp *MetricsPool) Registry() *metrics.Registry {
	return mp.registry.Load()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		mp.registry.Store(registryFor(config))
	}
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

var (
	_ Pool                   = (*MetricsPool)(nil)
	_ metrics.Instrumentable = (*MetricsPool)(nil)
)
