package threadpool

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
)

// Pool runs caller-owned jobs on a fixed set of long-lived workers.
type Pool interface {
	// Start starts the workers if they are not running yet. Submit calls it
	// implicitly; calling it directly moves the start cost out of the first
	// submission. A returned *errors.FatalError must be treated as fatal.
	Start() error

	// Submit queues work for execution and returns without waiting for it.
	// The pool starts lazily on the first submission.
	Submit(j *Job, work func()) error

	// Cancel removes j from the queue if no worker has claimed it yet.
	// It returns false when the job will run, is running or has run.
	Cancel(j *Job) bool

	// Shutdown lets queued jobs drain, stops every worker and waits for them.
	// A Submit made during or after the drain starts a new generation.
	// Shutdown must not be called from inside a job.
	Shutdown()

	// Size returns the worker count of the running generation, or the count
	// the next start would use.
	Size() int

	// Stats returns a snapshot of the pool state.
	Stats() Stats
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Started    bool
	Generation uint64
	Size       int
	Idle       int
	Running    int
	Queued     int
	Lost       int
	StackSize  int

	// Totals across all generations.
	Submitted int64
	Executed  int64
	Cancelled int64
}

// getpid is swapped in tests to simulate running in a forked child.
var getpid = os.Getpid

// threadPool implements Pool. Each start creates a new engine; the engine
// pointer is nil while the pool is stopped.
type threadPool struct {
	config Config
	logger *slog.Logger

	startMu    sync.Mutex // guards engine creation and detachment
	stopMu     sync.Mutex // serializes Shutdown calls
	eng        atomic.Pointer[engine]
	generation atomic.Uint64

	submitted atomic.Int64
	executed  atomic.Int64
	cancelled atomic.Int64
}

// engine is one generation of a pool: its workers, queue and the lock
// guarding them. An engine is never restarted.
type engine struct {
	pool       *threadPool
	size       int
	pid        int
	generation uint64
	stackSize  int

	mu      poolMutex
	cond    *sync.Cond
	queue   queue
	idle    int
	running int
	lost    int
	closed  bool
	exit    Job

	// abandoned marks an engine inherited from a parent process. Its workers
	// do not exist here, so it is neither signalled nor joined.
	abandoned atomic.Bool

	workers sync.WaitGroup
}

// New creates a pool. No worker is started until the first Start or Submit.
func New(config Config) Pool {
	return newThreadPool(config)
}

func newThreadPool(config Config) *threadPool {
	return &threadPool{
		config: config,
		logger: config.logger().With("pool", config.name()),
	}
}

// Start implements Pool.
func (p *threadPool) Start() error {
	_, err := p.ensureStarted()
	return err
}

// ensureStarted returns the live engine, starting one if needed. Concurrent
// callers block until the single start completes.
func (p *threadPool) ensureStarted() (*engine, error) {
	if e := p.eng.Load(); e != nil && e.pid == getpid() {
		return e, nil
	}

	p.startMu.Lock()
	defer p.startMu.Unlock()

	if e := p.eng.Load(); e != nil {
		pid := getpid()
		if e.pid == pid {
			return e, nil
		}
		e.abandoned.Store(true)
		p.eng.Store(nil)
		p.logger.Warn("discarding pool inherited from parent process",
			"generation", e.generation, "parent_pid", e.pid, "pid", pid)
	}

	e, err := p.start()
	if err != nil {
		return nil, err
	}
	p.eng.Store(e)
	return e, nil
}

// start spawns a new generation and waits until every worker has checked in.
func (p *threadPool) start() (*engine, error) {
	stackSize, err := stackSizeFunc()
	if err != nil {
		p.logger.Error("cannot determine worker stack size", "error", err)
		return nil, tperrors.NewFatalError("query worker stack size", err)
	}

	size := p.config.resolveSize()
	e := &engine{
		pool:       p,
		size:       size,
		pid:        getpid(),
		generation: p.generation.Add(1),
		stackSize:  stackSize,
	}
	e.cond = sync.NewCond(&e.mu)
	e.queue.init()

	// Counting semaphore used as a barrier: drained here, refilled one unit
	// per worker as it comes up.
	ready := semaphore.NewWeighted(int64(size))
	if err := ready.Acquire(context.Background(), int64(size)); err != nil {
		return nil, tperrors.NewFatalError("initialize startup barrier", err)
	}

	e.workers.Add(size)
	for i := 0; i < size; i++ {
		go e.worker(i, ready)
	}

	if err := ready.Acquire(context.Background(), int64(size)); err != nil {
		return nil, tperrors.NewFatalError("wait for workers", err)
	}

	p.logger.Debug("pool started",
		"generation", e.generation, "size", size, "stack_size", stackSize)
	if p.config.OnPoolStart != nil {
		p.config.OnPoolStart(e.generation, size)
	}
	return e, nil
}

// Shutdown implements Pool.
//
// The engine is detached under startMu, but the join happens outside it: a
// Submit made while the old generation drains, including one from a draining
// job, starts the next generation instead of waiting for this one to finish.
func (p *threadPool) Shutdown() {
	p.stopMu.Lock()
	defer p.stopMu.Unlock()

	e := p.detach()
	if e == nil {
		return
	}

	e.workers.Wait()
	p.logger.Debug("pool stopped", "generation", e.generation)
	if p.config.OnPoolStop != nil {
		p.config.OnPoolStop(e.generation)
	}
}

// detach unpublishes the live engine and posts its exit sentinel. It returns
// nil when there is nothing of this process to join.
func (p *threadPool) detach() *engine {
	p.startMu.Lock()
	defer p.startMu.Unlock()

	e := p.eng.Load()
	if e == nil {
		return nil
	}
	p.eng.Store(nil)

	if e.pid != getpid() {
		e.abandoned.Store(true)
		p.logger.Warn("skipping join of workers owned by parent process",
			"generation", e.generation, "parent_pid", e.pid)
		return nil
	}

	p.logger.Debug("pool stopping", "generation", e.generation)
	e.close()
	return e
}

// close marks the engine closed and posts the exit sentinel. Jobs queued
// ahead of the sentinel still run; later posts fail with ErrClosed.
func (e *engine) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.exit.handle = e.queue.pushBack(&e.exit)
	if e.idle > 0 {
		e.cond.Signal()
	}
}

// Size implements Pool.
func (p *threadPool) Size() int {
	if e := p.eng.Load(); e != nil {
		return e.size
	}
	return p.config.resolveSize()
}

// Stats implements Pool.
func (p *threadPool) Stats() Stats {
	s := Stats{
		Submitted: p.submitted.Load(),
		Executed:  p.executed.Load(),
		Cancelled: p.cancelled.Load(),
	}

	e := p.eng.Load()
	if e == nil {
		s.Generation = p.generation.Load()
		return s
	}

	e.mu.Lock()
	s.Started = true
	s.Generation = e.generation
	s.Size = e.size
	s.Idle = e.idle
	s.Running = e.running
	s.Queued = e.queue.len()
	s.Lost = e.lost
	s.StackSize = e.stackSize
	e.mu.Unlock()
	return s
}
