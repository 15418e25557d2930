package threadpool

import "golang.org/x/sys/unix"

const rlimInfinity = 1<<63 - 1

// threadStackSize derives the worker stack size from RLIMIT_STACK. Secondary
// threads default to a reduced stack here, so the limit is applied whenever
// it is usable.
func threadStackSize() (int, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &lim); err != nil {
		return 0, err
	}
	return stackSizeFromLimit(lim.Cur, rlimInfinity, unix.Getpagesize(), 0), nil
}
