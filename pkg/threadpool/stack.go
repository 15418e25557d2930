package threadpool

// minThreadStack mirrors the smallest stack a native thread may be given.
const minThreadStack = 16 << 10

// stackSizeFunc is swapped in tests.
var stackSizeFunc = threadStackSize

// stackSizeFromLimit aligns the soft stack limit down to pageSize. Unlimited
// or tiny limits yield fallback.
func stackSizeFromLimit(cur, infinity uint64, pageSize int, fallback int) int {
	if cur != infinity && pageSize > 0 {
		cur -= cur % uint64(pageSize)
		if cur >= minThreadStack {
			return int(cur)
		}
	}
	return fallback
}
