/*
Package threadpool provides a fixed-size background worker pool with lazy start
and best-effort cancellation of jobs that have not been claimed by a worker.

Callers own their job records. A Job is submitted with a closure, queued in
FIFO order and executed synchronously by one of the pool's long-lived workers.
The pool gives no completion notification; callers use their own
synchronization inside the closure.

Basic usage:

	pool := threadpool.New(threadpool.Config{Size: 8})
	defer pool.Shutdown()

	var (
		job  threadpool.Job
		done = make(chan struct{})
	)
	if err := pool.Submit(&job, func() { close(done) }); err != nil {
		log.Fatal(err)
	}
	<-done

Process-wide pool:

The package-level Submit, Cancel and Shutdown functions use a pool sized from
the THREADPOOL_SIZE environment setting, read once when the pool first
starts. Missing or non-numeric values give DefaultSize workers; any value is
clamped to [1, MaxSize].

Lifecycle:

The first Submit (or an explicit Start) spawns every worker and waits until
all of them have checked in. Concurrent first submitters block until that
single start completes. Shutdown posts an exit sentinel behind the jobs
already queued, so those still run, then joins every worker. The next Submit
starts a new generation.

Each generation records the process it was started in. If a pool is used from
a different process id than the one that started it, the inherited generation
is discarded without signalling or joining its workers and a new one is
started.

Cancellation:

Cancel succeeds only while the job is still linked into the queue. A worker
unlinks the job under the pool lock before it runs it, so from that moment
Cancel reports false even if the body has not started. A cancelled job's
closure is replaced by a trap that panics if ever invoked.

Failure policy:

The pool does not recover panics raised by jobs. A job that calls
runtime.Goexit terminates its worker, which is not replaced; the loss is
logged and reported through Config.OnWorkerLost and Stats.Lost. Failures
while starting the pool are returned as *errors.FatalError and must be
treated as fatal by the caller.

Build with -tags deadlock to replace the pool mutex with a deadlock-detecting
one during debugging.
*/
package threadpool
