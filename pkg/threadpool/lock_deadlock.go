//go:build deadlock

package threadpool

import "github.com/sasha-s/go-deadlock"

// Built with -tags deadlock the pool mutex reports lock-order inversions and
// locks held for too long.
type poolMutex = deadlock.Mutex
