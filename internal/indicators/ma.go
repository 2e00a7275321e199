// Package indicators provides technical indicator primitives over float slices.
// Every function returns a slice aligned to its input with NaN during warmup.
package indicators

import "math"

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// firstValid returns the index of the first non-NaN value, or len(x)
func firstValid(x []float64) int {
	for i, v := range x {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(x)
}

// SMA over the last p points. A window containing NaN yields NaN.
func SMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 {
		return out
	}
	var sum float64
	nans := 0
	for i, v := range x {
		if math.IsNaN(v) {
			nans++
		} else {
			sum += v
		}
		if i >= p {
			old := x[i-p]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}
		if i >= p-1 && nans == 0 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA (smoothing 2/(p+1)), seeded with the SMA of the first p valid points.
// Leading NaNs are skipped.
func EMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 {
		return out
	}
	start := firstValid(x)
	if len(x)-start < p {
		return out
	}
	var seed float64
	for i := start; i < start+p; i++ {
		seed += x[i]
	}
	seed /= float64(p)
	k := 2.0 / float64(p+1)
	out[start+p-1] = seed
	for i := start + p; i < len(x); i++ {
		if math.IsNaN(x[i]) {
			out[i] = out[i-1]
			continue
		}
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// WMA is the linearly weighted moving average, newest point weighted p
func WMA(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 {
		return out
	}
	denom := float64(p*(p+1)) / 2
	for i := p - 1; i < len(x); i++ {
		var sum float64
		valid := true
		for j := 0; j < p; j++ {
			v := x[i-j]
			if math.IsNaN(v) {
				valid = false
				break
			}
			sum += v * float64(p-j)
		}
		if valid {
			out[i] = sum / denom
		}
	}
	return out
}

// MeanStd returns the rolling mean and population standard deviation over window p
func MeanStd(x []float64, p int) (mean, std []float64) {
	n := len(x)
	mean = nanSlice(n)
	std = nanSlice(n)
	if p <= 0 {
		return
	}
	sma := SMA(x, p)
	for i := p - 1; i < n; i++ {
		m := sma[i]
		if math.IsNaN(m) {
			continue
		}
		var v float64
		for j := i - p + 1; j <= i; j++ {
			d := x[j] - m
			v += d * d
		}
		mean[i] = m
		std[i] = math.Sqrt(v / float64(p))
	}
	return
}
