package threadpool

import (
	"errors"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
)

// Submit implements Pool.
func (p *threadPool) Submit(j *Job, work func()) error {
	if j == nil {
		return validation.ValidateNotNil("threadpool", "job", nil)
	}
	if work == nil {
		return validation.ValidateNotNil("threadpool", "work", nil)
	}

	for {
		e, err := p.ensureStarted()
		if err != nil {
			return err
		}

		err = e.post(j, work)
		if errors.Is(err, tperrors.ErrClosed) {
			// Lost a race with Shutdown; the next generation takes the job.
			continue
		}
		if err != nil {
			return err
		}

		p.submitted.Add(1)
		return nil
	}
}

// post appends j at the tail of the queue and wakes one idle worker.
func (e *engine) post(j *Job, work func()) error {
	for {
		prev := j.owner.Load()
		if prev != nil && !prev.abandoned.Load() {
			return tperrors.NewOperationError("threadpool", "Submit", tperrors.ErrJobQueued)
		}
		if j.owner.CompareAndSwap(prev, e) {
			break
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		j.owner.CompareAndSwap(e, nil)
		return tperrors.ErrClosed
	}

	j.work = work
	j.seq++
	j.handle = e.queue.pushBack(j)
	if e.idle > 0 {
		e.cond.Signal()
	}
	return nil
}

// Cancel implements Pool.
func (p *threadPool) Cancel(j *Job) bool {
	if j == nil {
		return false
	}
	e := j.owner.Load()
	if e == nil || e.pool != p {
		return false
	}

	e.mu.Lock()
	cancelled := j.owner.Load() == e && j.handle != 0 && j.work != nil
	if cancelled {
		e.queue.remove(j.handle)
		j.handle = 0
		j.work = cancelledWork
		j.owner.Store(nil)
	}
	e.mu.Unlock()

	if cancelled {
		p.cancelled.Add(1)
	}
	return cancelled
}
