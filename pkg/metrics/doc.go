// Package metrics provides Prometheus instrumentation for threadpool components.
//
// # Overview
//
// The metrics package instruments:
//   - Pools (size, idle workers, queued jobs, generations started and stopped)
//   - Jobs (submitted, executed, cancelled, cancellation attempts that came too late)
//   - Latency (time queued before claim, time spent in the job body)
//   - Scheduler entries (fires, skips, replacements)
//
// # Quick Start
//
// Build a pool through the metrics-enabled constructor:
//
//	pool := threadpool.NewWithConfigAndMetrics(threadpool.Config{Size: 8}, "io", metrics.DefaultConfig())
//	defer pool.Shutdown()
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, for example in tests:
//
//	reg := prometheus.NewRegistry()
//	pool := threadpool.NewWithConfigAndMetrics(cfg, "isolated", metrics.Config{
//		Enabled:  true,
//		Registry: reg,
//	})
//
// # Available Metrics
//
//   - threadpool_pool_size: Number of worker threads in the pool
//   - threadpool_pool_idle_workers: Workers blocked waiting for work
//   - threadpool_pool_queued_jobs: Jobs waiting in the queue
//   - threadpool_pool_starts_total: Pool generations started
//   - threadpool_pool_shutdowns_total: Completed pool shutdowns
//   - threadpool_pool_workers_lost_total: Workers terminated by a job
//   - threadpool_jobs_submitted_total: Jobs submitted
//   - threadpool_jobs_executed_total: Jobs executed to completion
//   - threadpool_jobs_cancelled_total: Jobs cancelled before running
//   - threadpool_jobs_cancel_too_late_total: Cancellations that lost the race
//   - threadpool_jobs_queue_wait_seconds: Queue wait histogram
//   - threadpool_jobs_execution_seconds: Execution time histogram
//   - threadpool_scheduler_fired_total, _skipped_total, _replaced_total
//
// Pool metrics carry a pool_name label; scheduler metrics carry entry_id.
package metrics
