// Package context holds small context helpers shared by the threadpool
// packages that talk to external systems.
package context

import (
	"context"
	"errors"
	"time"
)

// WithTimeoutOrCancel bounds parent by timeout. A non-positive timeout leaves
// the parent deadline in charge; the returned cancel func must still be called.
func WithTimeoutOrCancel(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled reports whether ctx is done.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut reports whether ctx ended because its deadline passed.
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}
