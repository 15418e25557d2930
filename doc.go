/*
Package threadpool provides a fixed-size, lazily started background worker pool
with best-effort cancellation of jobs that have not started yet.

Core (pkg/threadpool):
  - Pool: explicit pools built with New or NewWithMetrics
  - Submit/Cancel/Shutdown: the process-wide default pool

Around the core:
  - metrics: Prometheus instrumentation
  - scheduler: cron-driven recurring submission
  - reporting: pool statistics published to Redis

Example usage:

	import "github.com/vnykmshr/threadpool/pkg/threadpool"

	var job threadpool.Job
	done := make(chan struct{})

	if err := threadpool.Submit(&job, func() { close(done) }); err != nil {
		log.Fatal(err)
	}
	<-done
*/
package threadpool
