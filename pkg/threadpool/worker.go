package threadpool

import (
	"runtime"

	"golang.org/x/sync/semaphore"
)

// worker is the loop run by every pool goroutine.
//
// The engine mutex is never held while a job body runs, so a job may call
// back into the pool (to cancel a sibling, for instance) without deadlock.
func (e *engine) worker(id int, ready *semaphore.Weighted) {
	p := e.pool
	defer e.workers.Done()

	if p.config.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	clean := false
	defer func() {
		if clean {
			return
		}
		// The job in flight panicked or called runtime.Goexit.
		e.mu.Lock()
		e.running--
		e.lost++
		e.mu.Unlock()
		p.logger.Warn("worker terminated by job", "generation", e.generation, "worker", id)
		if p.config.OnWorkerLost != nil {
			p.config.OnWorkerLost(id)
		}
	}()

	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(id)
	}
	ready.Release(1)

	e.mu.Lock()
	for {
		for e.queue.empty() {
			e.idle++
			e.cond.Wait()
			e.idle--
		}

		j, h := e.queue.front()
		if j == &e.exit {
			// Leave the sentinel queued and pass the wake-up on to one
			// more sibling.
			e.cond.Signal()
			e.mu.Unlock()
			clean = true
			if p.config.OnWorkerStop != nil {
				p.config.OnWorkerStop(id)
			}
			return
		}

		// Claim: once unlinked, Cancel can no longer intercept the job.
		e.queue.remove(h)
		j.handle = 0
		j.owner.Store(nil)
		work, seq := j.work, j.seq
		e.running++
		e.mu.Unlock()

		work()

		e.mu.Lock()
		e.running--
		// Mark completion unless the record was already submitted again.
		if j.seq == seq {
			j.work = nil
		}
		p.executed.Add(1)
	}
}
