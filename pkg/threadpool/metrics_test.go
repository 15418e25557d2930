package threadpool

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/threadpool/internal/testutil"
	"github.com/vnykmshr/threadpool/pkg/metrics"
)

func TestMetricsPoolCountsJobs(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 2}, "test_jobs")
	defer pool.Shutdown()

	const k = 25
	var ran int64
	for i := 0; i < k; i++ {
		testutil.AssertNoError(t, pool.Submit(new(Job), func() { atomic.AddInt64(&ran, 1) }))
	}
	testutil.WaitForInt64(t, &ran, k, 5*time.Second)

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.JobsSubmitted.WithLabelValues("test_jobs")), float64(k))
	testutil.AssertEventually(t, func() bool {
		return promtestutil.ToFloat64(r.JobsExecuted.WithLabelValues("test_jobs")) == k
	})
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolStarts.WithLabelValues("test_jobs")), float64(1))
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolSize.WithLabelValues("test_jobs")), float64(2))
	testutil.AssertEqual(t, promtestutil.CollectAndCount(r.JobExecutionSeconds), 1)
	testutil.AssertEqual(t, promtestutil.CollectAndCount(r.JobQueueWait), 1)
}

func TestMetricsPoolCountsCancellation(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 1}, "test_cancel")
	defer pool.Shutdown()

	release := occupy(t, pool)

	var j Job
	testutil.AssertNoError(t, pool.Submit(&j, func() {}))
	testutil.AssertEqual(t, pool.Cancel(&j), true)
	testutil.AssertEqual(t, pool.Cancel(&j), false)

	release()

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.JobsCancelled.WithLabelValues("test_cancel")), float64(1))
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.CancelTooLate.WithLabelValues("test_cancel")), float64(1))
}

func TestMetricsPoolLifecycle(t *testing.T) {
	userStops := testutil.NewCallbackTracker()
	userLost := testutil.NewCallbackTracker()
	pool := NewWithMetrics(Config{
		Size: 3,
		OnPoolStop: func(generation uint64) {
			userStops.Mark(generation)
		},
		OnWorkerLost: func(id int) {
			userLost.Mark(id)
		},
	}, "test_lifecycle")

	testutil.AssertNoError(t, pool.Start())
	pool.Shutdown()

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolStops.WithLabelValues("test_lifecycle")), float64(1))
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolSize.WithLabelValues("test_lifecycle")), float64(0))
	// Hooks from the caller's config still fire.
	userStops.AssertCallCount(t, 1)
	testutil.AssertEqual(t, userStops.Value(), interface{}(uint64(1)))
	userLost.AssertNotCalled(t)
}

func TestMetricsPoolRestartDuringDrainKeepsSize(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 2}, "test_restart")
	defer pool.Shutdown()

	release := occupy(t, pool)
	stopped := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(stopped)
	}()
	testutil.AssertEventually(t, func() bool { return !pool.Stats().Started })

	// The next generation starts while the old one is still draining.
	testutil.AssertNoError(t, pool.Start())
	release()
	testutil.WaitClosed(t, stopped, 2*time.Second)

	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolStarts.WithLabelValues("test_restart")), float64(2))
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.PoolSize.WithLabelValues("test_restart")), float64(2))
}

func TestMetricsPoolWorkerLost(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 2}, "test_lost")
	defer pool.Shutdown()

	testutil.AssertNoError(t, pool.Submit(new(Job), func() { runtime.Goexit() }))

	r := pool.Registry()
	testutil.AssertEventually(t, func() bool {
		return promtestutil.ToFloat64(r.WorkersLost.WithLabelValues("test_lost")) == 1
	})
}

func TestMetricsPoolToggle(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 1}, "test_toggle")
	defer pool.Shutdown()

	testutil.AssertEqual(t, pool.MetricsEnabled(), true)
	pool.DisableMetrics()
	testutil.AssertEqual(t, pool.MetricsEnabled(), false)

	flush(t, pool)
	r := pool.Registry()
	testutil.AssertEqual(t, promtestutil.ToFloat64(r.JobsSubmitted.WithLabelValues("test_toggle")), float64(0))

	reg := prometheus.NewRegistry()
	testutil.AssertNoError(t, pool.EnableMetrics(metrics.Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "toggled",
	}))
	testutil.AssertEqual(t, pool.MetricsEnabled(), true)

	flush(t, pool)
	testutil.AssertEqual(t, promtestutil.ToFloat64(pool.Registry().JobsSubmitted.WithLabelValues("test_toggle")), float64(1))

	families, err := reg.Gather()
	testutil.AssertNoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "toggled_jobs_submitted_total" {
			found = true
		}
	}
	testutil.AssertEqual(t, found, true)
}

func TestMetricsPoolStats(t *testing.T) {
	pool := NewWithMetrics(Config{Size: 1}, "test_stats")
	defer pool.Shutdown()

	release := occupy(t, pool)
	testutil.AssertNoError(t, pool.Submit(new(Job), func() {}))

	s := pool.Stats()
	testutil.AssertEqual(t, s.Queued, 1)
	testutil.AssertEqual(t, promtestutil.ToFloat64(pool.Registry().PoolQueued.WithLabelValues("test_stats")), float64(1))
	testutil.AssertEqual(t, pool.Size(), 1)

	release()
}

func TestMetricsPoolDefaultRegistererReused(t *testing.T) {
	pool := NewWithConfigAndMetrics(Config{Size: 1}, "test_default", metrics.DefaultConfig())
	defer pool.Shutdown()

	testutil.AssertEqual(t, pool.Registry(), metrics.DefaultRegistry)

	flush(t, pool)
	testutil.AssertEqual(t, promtestutil.ToFloat64(metrics.DefaultRegistry.JobsSubmitted.WithLabelValues("test_default")), float64(1))
}
