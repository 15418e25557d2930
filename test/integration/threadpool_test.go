package integration

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/goleak"

	"github.com/vnykmshr/threadpool/internal/testutil"
	"github.com/vnykmshr/threadpool/pkg/metrics"
	"github.com/vnykmshr/threadpool/pkg/reporting"
	"github.com/vnykmshr/threadpool/pkg/scheduler"
	"github.com/vnykmshr/threadpool/pkg/threadpool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-redis keeps no background goroutines once closed, but the
		// net package may leave a resolver goroutine behind briefly.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// TestSchedulerFeedsInstrumentedPool wires a scheduler to a metrics pool and
// checks that both layers agree on what ran.
func TestSchedulerFeedsInstrumentedPool(t *testing.T) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())

	pool := threadpool.NewWithConfigAndMetrics(threadpool.Config{Size: 2}, "integration", metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
	defer pool.Shutdown()

	sched := scheduler.NewWithConfig(scheduler.Config{
		Pool:         pool,
		TickInterval: 5 * time.Millisecond,
		Metrics:      registry,
	})
	testutil.AssertNoError(t, sched.Start())

	var runs int32
	testutil.AssertNoError(t, sched.ScheduleEvery("counter", 10*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
	}, scheduler.Options{MaxRuns: 5}))

	testutil.WaitForInt32(t, &runs, 5, 5*time.Second)
	testutil.WaitClosed(t, sched.Stop(), time.Second)
	pool.Shutdown()

	testutil.AssertEqual(t, promtestutil.ToFloat64(registry.ScheduleFired.WithLabelValues("counter")), float64(5))
	testutil.AssertEqual(t,
		promtestutil.ToFloat64(pool.Registry().JobsExecuted.WithLabelValues("integration")), float64(5))
	testutil.AssertEqual(t, pool.Stats().Executed, int64(5))
}

// TestManySubmittersWithCancellation mixes submitters, cancellers and a
// shutdown and checks that every job either ran once or was cancelled.
func TestManySubmittersWithCancellation(t *testing.T) {
	pool := threadpool.New(threadpool.Config{Size: 8})

	const (
		submitters = 8
		perWorker  = 500
	)
	var (
		wg        sync.WaitGroup
		runs      [submitters][perWorker]int32
		cancelled [submitters][perWorker]bool
	)
	for s := 0; s < submitters; s++ {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs := make([]threadpool.Job, perWorker)
			for i := range jobs {
				i := i
				if err := pool.Submit(&jobs[i], func() { atomic.AddInt32(&runs[s][i], 1) }); err != nil {
					t.Errorf("submit: %v", err)
					return
				}
				if i%3 == 0 {
					cancelled[s][i] = pool.Cancel(&jobs[i])
				}
			}
		}()
	}
	testutil.WaitGroupTimeout(t, &wg, 10*time.Second)
	pool.Shutdown()

	for s := range runs {
		for i := range runs[s] {
			got := atomic.LoadInt32(&runs[s][i])
			if cancelled[s][i] && got != 0 {
				t.Fatalf("submitter %d job %d cancelled but ran", s, i)
			}
			if !cancelled[s][i] && got != 1 {
				t.Fatalf("submitter %d job %d ran %d times", s, i, got)
			}
		}
	}
}

// TestScheduledRedisReporting publishes pool stats through the scheduler.
// Skipped when no Redis server is reachable.
func TestScheduledRedisReporting(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	pool := threadpool.New(threadpool.Config{Name: "reported", Size: 3})
	defer pool.Shutdown()

	publisher := &reporting.RedisPublisher{Client: rdb, KeyPrefix: "threadpool_it", TTL: 10 * time.Second}
	defer rdb.Del(context.Background(), publisher.Key("reported"))

	sched := scheduler.NewWithConfig(scheduler.Config{Pool: pool, TickInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, sched.ScheduleEvery("publish", 20*time.Millisecond,
		publisher.PublishFunc(pool, "reported"), scheduler.Options{}))
	testutil.AssertNoError(t, sched.Start())
	defer func() { <-sched.Stop() }()

	testutil.AssertEventually(t, func() bool {
		s, err := publisher.Load(ctx, "reported")
		return err == nil && s.Started && s.Size == 3
	})
}
