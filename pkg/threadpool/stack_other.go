//go:build !linux && !darwin

package threadpool

// threadStackSize reports 0: the platform default is used.
func threadStackSize() (int, error) {
	return 0, nil
}
