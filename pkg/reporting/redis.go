package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	tpcontext "github.com/vnykmshr/threadpool/pkg/common/context"
	tperrors "github.com/vnykmshr/threadpool/pkg/common/errors"
	"github.com/vnykmshr/threadpool/pkg/common/validation"
	"github.com/vnykmshr/threadpool/pkg/threadpool"
)

const (
	defaultKeyPrefix = "threadpool"
	defaultTTL       = time.Minute
	defaultTimeout   = 500 * time.Millisecond
)

// Hash field names written by Publish.
const (
	FieldStarted    = "started"
	FieldGeneration = "generation"
	FieldSize       = "size"
	FieldIdle       = "idle"
	FieldRunning    = "running"
	FieldQueued     = "queued"
	FieldLost       = "lost"
	FieldStackSize  = "stack_size"
	FieldSubmitted  = "submitted"
	FieldExecuted   = "executed"
	FieldCancelled  = "cancelled"
	FieldInstance   = "instance"
	FieldUpdatedAt  = "updated_at"
)

// RedisPublisher writes pool snapshots to Redis hashes so that other
// processes can inspect them. The zero value of every field except Client
// falls back to a default.
type RedisPublisher struct {
	// Client is the Redis connection. Required.
	Client redis.UniversalClient

	// KeyPrefix is prepended to the pool name (default "threadpool").
	KeyPrefix string

	// TTL is how long a published snapshot lives (0 = 1 minute). A pool
	// whose publisher stops disappears once it expires.
	TTL time.Duration

	// Timeout bounds each Redis round trip (0 = 500ms).
	Timeout time.Duration

	// InstanceID tags snapshots with their origin (default hostname-pid).
	InstanceID string

	Logger *slog.Logger
}

// Key returns the Redis key holding the snapshot of the named pool.
func (p *RedisPublisher) Key(name string) string {
	prefix := p.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + ":" + name
}

func (p *RedisPublisher) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return defaultTTL
}

func (p *RedisPublisher) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultTimeout
}

func (p *RedisPublisher) instanceID() string {
	if p.InstanceID != "" {
		return p.InstanceID
	}
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

func (p *RedisPublisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// validate checks the publisher settings shared by Publish and Load.
func (p *RedisPublisher) validate() error {
	if err := validation.ValidateNotNil("reporting", "client", p.Client); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("reporting", "ttl", p.TTL.Seconds()); err != nil {
		return err
	}
	return validation.ValidateNonNegative("reporting", "timeout", p.Timeout.Seconds())
}

// roundTripError wraps a failed Redis call, marking it with ErrTimeout when
// the deadline ran out.
func roundTripError(ctx context.Context, op, key string, err error) error {
	var netErr net.Error
	if tpcontext.IsTimedOut(ctx) || (errors.As(err, &netErr) && netErr.Timeout()) {
		err = fmt.Errorf("%w: %w", tperrors.ErrTimeout, err)
	}
	return tperrors.NewOperationError("reporting", op, err).WithContext("key " + key)
}

// Publish replaces the snapshot of the named pool. The hash fields and the
// expiry are written in one MULTI/EXEC transaction.
func (p *RedisPublisher) Publish(ctx context.Context, name string, s threadpool.Stats) error {
	if err := p.validate(); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("reporting", "name", name); err != nil {
		return err
	}

	key := p.Key(name)
	if tpcontext.IsCanceled(ctx) {
		return tperrors.NewOperationError("reporting", "Publish", ctx.Err()).WithContext("key " + key)
	}

	ctx, cancel := tpcontext.WithTimeoutOrCancel(ctx, p.timeout())
	defer cancel()

	fields := Fields(s)
	fields[FieldInstance] = p.instanceID()
	fields[FieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	_, err := p.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, p.ttl())
		return nil
	})
	if err != nil {
		return roundTripError(ctx, "Publish", key, err)
	}
	return nil
}

// Load reads back the snapshot of the named pool.
func (p *RedisPublisher) Load(ctx context.Context, name string) (threadpool.Stats, error) {
	if err := p.validate(); err != nil {
		return threadpool.Stats{}, err
	}

	ctx, cancel := tpcontext.WithTimeoutOrCancel(ctx, p.timeout())
	defer cancel()

	key := p.Key(name)
	values, err := p.Client.HGetAll(ctx, key).Result()
	if err != nil {
		return threadpool.Stats{}, roundTripError(ctx, "Load", key, err)
	}
	if len(values) == 0 {
		return threadpool.Stats{}, tperrors.NewOperationError("reporting", "Load", tperrors.ErrNotFound).
			WithContext("key " + key)
	}
	return ParseFields(values)
}

// PublishFunc returns a job body that publishes the current stats of pool
// under name. Failures are logged, not returned, so the closure can be
// handed straight to a scheduler.
func (p *RedisPublisher) PublishFunc(pool threadpool.Pool, name string) func() {
	return func() {
		if err := p.Publish(context.Background(), name, pool.Stats()); err != nil {
			p.logger().Warn("publish pool stats", "pool", name, "error", err)
		}
	}
}

// Fields maps a snapshot to the hash fields written by Publish.
func Fields(s threadpool.Stats) map[string]interface{} {
	started := 0
	if s.Started {
		started = 1
	}
	return map[string]interface{}{
		FieldStarted:    started,
		FieldGeneration: s.Generation,
		FieldSize:       s.Size,
		FieldIdle:       s.Idle,
		FieldRunning:    s.Running,
		FieldQueued:     s.Queued,
		FieldLost:       s.Lost,
		FieldStackSize:  s.StackSize,
		FieldSubmitted:  s.Submitted,
		FieldExecuted:   s.Executed,
		FieldCancelled:  s.Cancelled,
	}
}

// ParseFields is the inverse of Fields. Unknown fields are ignored and
// missing ones stay zero.
func ParseFields(values map[string]string) (threadpool.Stats, error) {
	var (
		s   threadpool.Stats
		err error
	)

	parseInt := func(field string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := values[field]; ok {
			*dst, err = strconv.Atoi(v)
			if err != nil {
				err = tperrors.NewValidationError("reporting", field, v, "not an integer")
			}
		}
	}
	parseInt64 := func(field string, dst *int64) {
		if err != nil {
			return
		}
		if v, ok := values[field]; ok {
			*dst, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				err = tperrors.NewValidationError("reporting", field, v, "not an integer")
			}
		}
	}

	var started int
	parseInt(FieldStarted, &started)
	s.Started = started != 0

	if v, ok := values[FieldGeneration]; ok && err == nil {
		s.Generation, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			err = tperrors.NewValidationError("reporting", FieldGeneration, v, "not an unsigned integer")
		}
	}

	parseInt(FieldSize, &s.Size)
	parseInt(FieldIdle, &s.Idle)
	parseInt(FieldRunning, &s.Running)
	parseInt(FieldQueued, &s.Queued)
	parseInt(FieldLost, &s.Lost)
	parseInt(FieldStackSize, &s.StackSize)
	parseInt64(FieldSubmitted, &s.Submitted)
	parseInt64(FieldExecuted, &s.Executed)
	parseInt64(FieldCancelled, &s.Cancelled)

	if err != nil {
		return threadpool.Stats{}, err
	}
	return s, nil
}
