//go:build !deadlock

package threadpool

import "sync"

type poolMutex = sync.Mutex
