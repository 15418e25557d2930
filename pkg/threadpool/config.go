package threadpool

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultSize is the worker count used when no size is configured.
	DefaultSize = 4

	// MaxSize is the upper bound on the worker count.
	MaxSize = 128

	// DefaultSizeEnv names the environment setting read for the worker count.
	DefaultSizeEnv = "THREADPOOL_SIZE"
)

// Config holds configuration options for creating a pool.
type Config struct {
	// Name identifies the pool in logs and metrics labels.
	Name string

	// Size is the number of workers. Zero means read SizeEnv at start.
	// The resolved value is clamped to [1, MaxSize].
	Size int

	// SizeEnv is the environment setting holding the worker count.
	// Empty means DefaultSizeEnv.
	SizeEnv string

	// LockOSThread pins each worker goroutine to its own OS thread.
	LockOSThread bool

	// Logger receives lifecycle events. Nil means slog.Default().
	Logger *slog.Logger

	// OnPoolStart is called after all workers of a generation are ready.
	OnPoolStart func(generation uint64, size int)

	// OnPoolStop is called after every worker of a generation has been joined.
	OnPoolStop func(generation uint64)

	// OnWorkerStart is called on the worker goroutine before it takes work.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called on the worker goroutine when it sees the exit sentinel.
	OnWorkerStop func(workerID int)

	// OnWorkerLost is called when a job terminates its worker.
	OnWorkerLost func(workerID int)
}

// DefaultConfig returns the configuration of the process-wide default pool.
func DefaultConfig() Config {
	return Config{
		Name:    "default",
		SizeEnv: DefaultSizeEnv,
	}
}

// ClampSize bounds n to [1, MaxSize].
func ClampSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

// resolveSize returns the worker count for a new generation.
func (c Config) resolveSize() int {
	if c.Size > 0 {
		return ClampSize(c.Size)
	}
	key := c.SizeEnv
	if key == "" {
		key = DefaultSizeEnv
	}
	return ClampSize(SizeFromEnv(key))
}

// SizeFromEnv reads an integer worker count from the environment setting key.
// A missing or non-numeric value yields DefaultSize. Numbers too large to
// represent saturate toward their sign so that clamping still applies.
func SizeFromEnv(key string) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return DefaultSize
	}
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err == nil {
		return n
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(raw, "-") {
			return 0
		}
		return MaxSize + 1
	}
	return DefaultSize
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) name() string {
	if c.Name != "" {
		return c.Name
	}
	return "pool"
}
