package scheduler

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
	"github.com/vnykmshr/threadpool/pkg/metrics"
	"github.com/vnykmshr/threadpool/pkg/threadpool"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	defaultMaxEntries   = 10000
	maxIDLength         = 255
)

// Overlap selects what happens when an entry fires while its previous run
// has not finished.
type Overlap int

const (
	// SkipIfPending drops the fire while the previous run is queued or running.
	SkipIfPending Overlap = iota

	// ReplacePending cancels a previous run that is still queued and submits
	// a fresh one in its place. A run that is already executing is left alone
	// and the fire is skipped.
	ReplacePending
)

func (o Overlap) String() string {
	switch o {
	case SkipIfPending:
		return "skip"
	case ReplacePending:
		return "replace"
	default:
		return "unknown"
	}
}

// Options configures a single entry.
type Options struct {
	Overlap Overlap

	// MaxRuns removes the entry after that many submitted runs (0 = unlimited).
	MaxRuns int
}

// Entry is a snapshot of a scheduled entry.
type Entry struct {
	ID         string
	Expression string
	Next       time.Time
	Created    time.Time
	Overlap    Overlap
	Pending    bool

	Fired    int64
	Skipped  int64
	Replaced int64
}

// Scheduler submits work to a thread pool on cron schedules.
type Scheduler interface {
	// Schedule registers work under id. expr is a six-field cron expression
	// with a leading seconds field, or a descriptor such as "@hourly" or
	// "@every 5m".
	Schedule(id, expr string, work func(), opts Options) error

	// ScheduleEvery registers work to fire at a fixed interval.
	ScheduleEvery(id string, interval time.Duration, work func(), opts Options) error

	// Remove unregisters id and cancels its run if it is still queued.
	Remove(id string) bool

	// Next returns the next fire time of id.
	Next(id string) (time.Time, error)

	// List returns all entries ordered by next fire time.
	List() []Entry

	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Pool runs the submitted work. Nil creates a private pool that is shut
	// down by Stop.
	Pool threadpool.Pool

	Location     *time.Location // For cron evaluation (default: time.Local)
	TickInterval time.Duration  // How often due entries are checked (default: 50ms)
	MaxEntries   int            // Maximum number of entries (default: 10000)

	Logger *slog.Logger

	// Metrics receives fired/skipped/replaced counters. Nil disables them.
	Metrics *metrics.Registry
}

// entry is one registered schedule. It owns the Job record it submits, so
// at most one run of an entry is ever queued.
type entry struct {
	id       string
	expr     string
	schedule cron.Schedule
	work     func()
	opts     Options
	created  time.Time
	next     time.Time // guarded by scheduler.mu

	job      threadpool.Job
	inFlight atomic.Bool // set from submission until the run returns

	fired    atomic.Int64
	skipped  atomic.Int64
	replaced atomic.Int64
}

// run is the closure handed to the pool.
func (e *entry) run() {
	defer e.inFlight.Store(false)
	e.work()
}

type scheduler struct {
	pool         threadpool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	logger       *slog.Logger
	metrics      *metrics.Registry
	cronParser   cron.Parser

	mu      sync.RWMutex
	entries map[string]*entry
	done    chan struct{}
	stopped chan struct{}
	running bool
}

// New creates a scheduler with default configuration.
func New() Scheduler {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		pool = threadpool.New(threadpool.Config{
			Name:   "scheduler",
			Size:   threadpool.DefaultSize,
			Logger: logger,
		})
		ownPool = true
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	return &scheduler{
		pool:         pool,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxEntries:   maxEntries,
		logger:       logger.With("component", "scheduler"),
		metrics:      cfg.Metrics,
		cronParser: cron.NewParser(cron.Second | cron.Minute | cron.Hour |
			cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		entries: make(map[string]*entry),
	}
}

func (s *scheduler) Schedule(id, expr string, work func(), opts Options) error {
	if err := validation.ValidateNotEmpty("scheduler", "expression", expr); err != nil {
		return err
	}
	schedule, err := s.cronParser.Parse(expr)
	if err != nil {
		return tperrors.NewValidationError("scheduler", "expression", expr, err.Error()).
			WithHint("use six fields with leading seconds, or a descriptor such as @hourly")
	}
	return s.add(id, expr, schedule, work, opts)
}

func (s *scheduler) ScheduleEvery(id string, interval time.Duration, work func(), opts Options) error {
	if err := validation.ValidatePositive("scheduler", "interval", int(interval)); err != nil {
		return err
	}
	return s.add(id, "@every "+interval.String(), intervalSchedule(interval), work, opts)
}

func (s *scheduler) add(id, expr string, schedule cron.Schedule, work func(), opts Options) error {
	if err := validation.ValidateNotEmpty("scheduler", "id", id); err != nil {
		return err
	}
	if len(id) > maxIDLength {
		return tperrors.NewValidationError("scheduler", "id", id, "too long").
			WithHint("use at most 255 characters")
	}
	if work == nil {
		return validation.ValidateNotNil("scheduler", "work", nil)
	}
	if err := validation.ValidateRange("scheduler", "overlap", int(opts.Overlap),
		int(SkipIfPending), int(ReplacePending)); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("scheduler", "max_runs", float64(opts.MaxRuns)); err != nil {
		return err
	}

	now := time.Now().In(s.location)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return tperrors.NewOperationError("scheduler", "Schedule", tperrors.ErrDuplicate).
			WithContext("id " + id)
	}
	if len(s.entries) >= s.maxEntries {
		return tperrors.NewValidationError("scheduler", "entries", len(s.entries)+1, "limit reached").
			WithHint("remove unused entries or raise Config.MaxEntries")
	}

	s.entries[id] = &entry{
		id:       id,
		expr:     expr,
		schedule: schedule,
		work:     work,
		opts:     opts,
		created:  now,
		next:     schedule.Next(now),
	}
	return nil
}

func (s *scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return false
	}
	delete(s.entries, id)

	if s.pool.Cancel(&e.job) {
		e.inFlight.Store(false)
		s.logger.Debug("cancelled queued run of removed entry", "entry", id)
	}
	return true
}

func (s *scheduler) Next(id string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	if !exists {
		return time.Time{}, tperrors.NewOperationError("scheduler", "Next", tperrors.ErrNotFound).
			WithContext("id " + id)
	}
	return e.next, nil
}

func (s *scheduler) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, Entry{
			ID:         e.id,
			Expression: e.expr,
			Next:       e.next,
			Created:    e.created,
			Overlap:    e.opts.Overlap,
			Pending:    e.inFlight.Load(),
			Fired:      e.fired.Load(),
			Skipped:    e.skipped.Load(),
			Replaced:   e.replaced.Load(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Next.Equal(entries[j].Next) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Next.Before(entries[j].Next)
	})
	return entries
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return tperrors.NewOperationError("scheduler", "Start", tperrors.ErrAlreadyStarted).
			WithContext("call Stop first")
	}

	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.done, s.stopped)
	s.logger.Debug("scheduler started", "tick", s.tickInterval)
	return nil
}

// Stop ends the firing loop. Runs already submitted stay with the pool; a
// private pool is shut down after they drain. The returned channel closes
// once everything has stopped.
func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	wasRunning := s.running
	loopStopped := s.stopped
	if s.running {
		s.running = false
		close(s.done)
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if wasRunning {
			<-loopStopped
		}
		if s.ownPool {
			s.pool.Shutdown()
		}
		s.logger.Debug("scheduler stopped")
	}()
	return stopped
}

func (s *scheduler) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.processDueEntries()
		}
	}
}

// processDueEntries fires every entry whose time has come. The lock is held
// throughout so that Remove never races with a submission of the same entry.
func (s *scheduler) processDueEntries() {
	now := time.Now().In(s.location)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if now.Before(e.next) {
			continue
		}
		e.next = e.schedule.Next(now)

		if !s.fire(e) {
			continue
		}
		if e.opts.MaxRuns > 0 && e.fired.Load() >= int64(e.opts.MaxRuns) {
			delete(s.entries, id)
			s.logger.Debug("entry reached max runs", "entry", id, "runs", e.opts.MaxRuns)
		}
	}
}

// fire submits one run of e, applying its overlap policy, and reports whether
// a run was submitted. Called with s.mu held.
func (s *scheduler) fire(e *entry) bool {
	if !e.inFlight.CompareAndSwap(false, true) {
		if e.opts.Overlap != ReplacePending || !s.pool.Cancel(&e.job) {
			e.skipped.Add(1)
			if s.metrics != nil {
				s.metrics.ScheduleSkipped.WithLabelValues(e.id).Inc()
			}
			s.logger.Debug("skipping fire, previous run pending", "entry", e.id)
			return false
		}
		// The cancelled run's slot passes to the replacement.
		e.replaced.Add(1)
		if s.metrics != nil {
			s.metrics.ScheduleReplaced.WithLabelValues(e.id).Inc()
		}
	}

	if err := s.pool.Submit(&e.job, e.run); err != nil {
		e.inFlight.Store(false)
		s.logger.Error("submit scheduled run", "entry", e.id, "error", err)
		return false
	}

	e.fired.Add(1)
	if s.metrics != nil {
		s.metrics.ScheduleFired.WithLabelValues(e.id).Inc()
	}
	return true
}

// intervalSchedule fires at a fixed distance from the previous check.
// cron.Every rounds to whole seconds, which is too coarse for short intervals.
type intervalSchedule time.Duration

func (d intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}
