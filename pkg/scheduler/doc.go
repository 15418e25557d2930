// Package scheduler fires work into a threadpool.Pool on cron schedules.
//
// Each entry owns a single threadpool.Job, so at most one run of an entry is
// queued at any time. What happens when an entry comes due while its previous
// run is still pending is selected per entry with Options.Overlap.
//
// Basic usage:
//
//	pool := threadpool.New(threadpool.Config{Size: 4})
//	defer pool.Shutdown()
//
//	s := scheduler.NewWithConfig(scheduler.Config{Pool: pool})
//	if err := s.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer func() { <-s.Stop() }()
//
//	// Every 30 seconds.
//	s.Schedule("report", "*/30 * * * * *", publishStats, scheduler.Options{})
//
//	// Every 500ms; a stale queued run is swapped for a fresh one.
//	s.ScheduleEvery("poll", 500*time.Millisecond, poll, scheduler.Options{
//		Overlap: scheduler.ReplacePending,
//	})
//
// Expressions:
//
// Cron expressions have six fields with a leading seconds field:
//
//	second minute hour day-of-month month day-of-week
//
// Descriptors such as @hourly, @daily and @every 1m30s are accepted as well.
// Expressions are evaluated in Config.Location.
//
// Overlap policies:
//
//   - SkipIfPending (default) drops a fire while the previous run is queued or
//     running.
//   - ReplacePending cancels a previous run that is still queued and submits a
//     new one. A run that a worker has already claimed cannot be cancelled, so
//     that fire is skipped.
//
// Per-entry fired, skipped and replaced counts are reported by List and, when
// Config.Metrics is set, exported as Prometheus counters labelled by entry id.
package scheduler
