// Package mathx provides the small numeric helpers shared by the
// calibration packages.
package mathx

// Interp is piecewise-linear interpolation of ys over ascending xs, clamped
// at the ends.  A single-point table is a constant.
func Interp(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 1 || x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	lo := 0
	for lo < n-2 && x >= xs[lo+1] {
		lo++
	}
	frac := (x - xs[lo]) / (xs[lo+1] - xs[lo])
	return ys[lo] + frac*(ys[lo+1]-ys[lo])
}

// Linspace returns n evenly spaced values covering [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
