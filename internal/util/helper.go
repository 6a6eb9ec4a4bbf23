package util

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// Linspace returns n values evenly spaced over [start, stop], endpoints
// included. Both endpoints are emitted exactly; interior points are computed
// from the index to avoid accumulating rounding error.
//
// It returns nil if n <= 0, and a single-element slice holding start if n == 1.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}

	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[0] = start
	out[n-1] = stop

	return out
}

// CeilDiv returns the ceiling of a/b for positive integers.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
