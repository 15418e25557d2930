package threadpool

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/threadpool/internal/testutil"
)

func TestDefaultPoolEndToEnd(t *testing.T) {
	t.Setenv(DefaultSizeEnv, "")
	os.Unsetenv(DefaultSizeEnv)
	defer Shutdown()

	const k = 10000
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen []int
		jobs = make([]Job, k)
	)
	wg.Add(k)
	for i := range jobs {
		i := i
		testutil.AssertNoError(t, Submit(&jobs[i], func() {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
			wg.Done()
		}))
	}

	testutil.WaitGroupTimeout(t, &wg, 30*time.Second)

	mu.Lock()
	testutil.AssertEqual(t, len(seen), k)
	counts := make([]int, k)
	for _, i := range seen {
		counts[i]++
	}
	mu.Unlock()
	for i, n := range counts {
		if n != 1 {
			t.Fatalf("index %d recorded %d times", i, n)
		}
	}

	s := DefaultStats()
	testutil.AssertEqual(t, s.Size, DefaultSize)
	testutil.AssertEqual(t, Default().Size(), DefaultSize)
}

func TestDefaultPoolReadsSizeAtStart(t *testing.T) {
	t.Setenv(DefaultSizeEnv, "100")
	defer Shutdown()

	testutil.AssertNoError(t, Default().Start())
	testutil.AssertEqual(t, DefaultStats().Size, 100)

	// The setting is only consulted when a generation starts.
	os.Setenv(DefaultSizeEnv, "2")
	testutil.AssertEqual(t, DefaultStats().Size, 100)

	Shutdown()
	testutil.AssertNoError(t, Default().Start())
	testutil.AssertEqual(t, DefaultStats().Size, 2)
}

func TestDefaultPoolClampsSize(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"0", 1},
		{"-7", 1},
		{"999", MaxSize},
		{"many", DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(DefaultSizeEnv, tt.value)
			defer Shutdown()

			testutil.AssertNoError(t, Default().Start())
			testutil.AssertEqual(t, DefaultStats().Size, tt.want)
		})
	}
}

func TestDefaultCancel(t *testing.T) {
	t.Setenv(DefaultSizeEnv, "1")
	defer Shutdown()

	release := occupy(t, Default())

	var (
		j   Job
		ran int32
	)
	testutil.AssertNoError(t, Submit(&j, func() { atomic.AddInt32(&ran, 1) }))
	testutil.AssertEqual(t, Cancel(&j), true)

	release()
	flush(t, Default())
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(0))
}
