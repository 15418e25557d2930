package threadpool

import (
	"sync/atomic"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
)

// Job is a caller-owned unit of work. The zero value is ready to submit.
//
// A Job must stay reachable and must not be copied from the moment it is
// submitted until it has either run or been cancelled. The pool never reports
// completion; callers observe it through their own synchronization inside the
// work function. Once a run has been observed, or Cancel reported success, the
// same Job may be submitted again.
type Job struct {
	// Fields below are guarded by the owning engine's mutex.
	work   func()
	handle int32 // queue slot, 0 when unlinked
	seq    uint64

	// owner is non-nil exactly while the job is linked into an engine's queue.
	owner atomic.Pointer[engine]
}

// cancelledWork replaces the body of a cancelled job. It has been unlinked,
// so reaching it means the queue is corrupt.
func cancelledWork() {
	panic(tperrors.ErrCancelledJobRun)
}
