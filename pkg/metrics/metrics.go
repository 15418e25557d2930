// Package metrics provides Prometheus instrumentation for threadpool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultNamespace = "threadpool"

// Registry holds all metric instances for threadpool components.
type Registry struct {
	// Pool Metrics
	PoolSize    *prometheus.GaugeVec
	PoolIdle    *prometheus.GaugeVec
	PoolQueued  *prometheus.GaugeVec
	PoolStarts  *prometheus.CounterVec
	PoolStops   *prometheus.CounterVec
	WorkersLost *prometheus.CounterVec

	// Job Metrics
	JobsSubmitted       *prometheus.CounterVec
	JobsExecuted        *prometheus.CounterVec
	JobsCancelled       *prometheus.CounterVec
	CancelTooLate       *prometheus.CounterVec
	JobQueueWait        *prometheus.HistogramVec
	JobExecutionSeconds *prometheus.HistogramVec

	// Scheduler Metrics
	ScheduleFired    *prometheus.CounterVec
	ScheduleSkipped  *prometheus.CounterVec
	ScheduleReplaced *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by threadpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a registry honoring the namespace and constant
// labels of config. A nil config.Registry falls back to prometheus.DefaultRegisterer.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	factory := promauto.With(reg)
	labels := config.Labels

	return &Registry{
		PoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "size",
				Help:        "Number of worker threads in the pool",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		PoolIdle: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "idle_workers",
				Help:        "Number of workers blocked waiting for work",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		PoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "queued_jobs",
				Help:        "Number of jobs waiting in the queue",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		PoolStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "starts_total",
				Help:        "Total number of pool generations started",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		PoolStops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "shutdowns_total",
				Help:        "Total number of completed pool shutdowns",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkersLost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pool",
				Name:        "workers_lost_total",
				Help:        "Total number of workers terminated by a job",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		JobsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "submitted_total",
				Help:        "Total number of jobs submitted",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		JobsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "executed_total",
				Help:        "Total number of jobs executed to completion",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		JobsCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "cancelled_total",
				Help:        "Total number of jobs removed from the queue before running",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		CancelTooLate: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "cancel_too_late_total",
				Help:        "Total number of cancellation attempts on jobs already claimed or finished",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		JobQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "queue_wait_seconds",
				Help:        "Time jobs spend queued before a worker claims them",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		JobExecutionSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "jobs",
				Name:        "execution_seconds",
				Help:        "Time spent executing job bodies",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		ScheduleFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "fired_total",
				Help:        "Total number of schedule fires that submitted a job",
				ConstLabels: labels,
			},
			[]string{"entry_id"},
		),

		ScheduleSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "skipped_total",
				Help:        "Total number of schedule fires skipped because the previous run was pending",
				ConstLabels: labels,
			},
			[]string{"entry_id"},
		),

		ScheduleReplaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "scheduler",
				Name:        "replaced_total",
				Help:        "Total number of queued runs cancelled and replaced by a newer fire",
				ConstLabels: labels,
			},
			[]string{"entry_id"},
		),
	}
}
