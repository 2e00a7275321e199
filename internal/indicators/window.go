package indicators

import "math"

// Highest is the rolling maximum over n bars
func Highest(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		m := math.Inf(-1)
		for j := 0; j < n; j++ {
			m = math.Max(m, x[i-j])
		}
		out[i] = m
	}
	return out
}

// Lowest is the rolling minimum over n bars
func Lowest(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	if n <= 0 {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		m := math.Inf(1)
		for j := 0; j < n; j++ {
			m = math.Min(m, x[i-j])
		}
		out[i] = m
	}
	return out
}

// Change is x[i]-x[i-n], NaN for the first n bars
func Change(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	if n <= 0 {
		return out
	}
	for i := n; i < len(x); i++ {
		out[i] = x[i] - x[i-n]
	}
	return out
}

// Rising is true where the last n steps each increased strictly
func Rising(x []float64, n int) []bool {
	out := make([]bool, len(x))
	for i := n; i < len(x) && n > 0; i++ {
		ok := true
		for j := 0; j < n; j++ {
			if x[i-j] <= x[i-j-1] {
				ok = false
				break
			}
		}
		out[i] = ok
	}
	return out
}

// Falling is true where the last n steps each decreased strictly
func Falling(x []float64, n int) []bool {
	out := make([]bool, len(x))
	for i := n; i < len(x) && n > 0; i++ {
		ok := true
		for j := 0; j < n; j++ {
			if x[i-j] >= x[i-j-1] {
				ok = false
				break
			}
		}
		out[i] = ok
	}
	return out
}

// Crossover is true at i when a was at or below b on i-1 and strictly above at i.
// The output has the length of the longer input; missing points never cross.
func Crossover(a, b []float64) []bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]bool, n)
	for i := 1; i < n; i++ {
		if i >= len(a) || i >= len(b) {
			continue
		}
		if a[i-1] <= b[i-1] && a[i] > b[i] {
			out[i] = true
		}
	}
	return out
}

// Crossunder is Crossover with the arguments swapped
func Crossunder(a, b []float64) []bool {
	return Crossover(b, a)
}

// Constant broadcasts v to a slice of length n
func Constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
