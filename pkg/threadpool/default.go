package threadpool

// defaultPool is the process-wide pool behind the package-level functions.
// It is sized from THREADPOOL_SIZE when first used.
var defaultPool = New(DefaultConfig())

// Default returns the process-wide pool.
func Default() Pool {
	return defaultPool
}

// Submit queues work on the process-wide pool, starting it on first use.
func Submit(j *Job, work func()) error {
	return defaultPool.Submit(j, work)
}

// Cancel removes j from the process-wide pool's queue if it has not been
// claimed yet.
func Cancel(j *Job) bool {
	return defaultPool.Cancel(j)
}

// Shutdown stops the process-wide pool. The next Submit starts it again.
func Shutdown() {
	defaultPool.Shutdown()
}

// DefaultStats returns a snapshot of the process-wide pool.
func DefaultStats() Stats {
	return defaultPool.Stats()
}
