package threadpool

import (
	"runtime"

	"golang.org/x/sys/unix"
)

const rlimInfinity = ^uint64(0)

// threadStackSize derives the worker stack size from RLIMIT_STACK, following
// the glibc default when the limit is unusable.
func threadStackSize() (int, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_STACK, &lim); err != nil {
		return 0, err
	}
	return stackSizeFromLimit(lim.Cur, rlimInfinity, unix.Getpagesize(), glibcStackSize()), nil
}

func glibcStackSize() int {
	switch runtime.GOARCH {
	case "ppc64", "ppc64le":
		return 4 << 20
	}
	return 2 << 20
}
