package indicators

import "math"

// SuperTrend returns the trailing stop line and trend direction (1 up, -1 down)
// built from ATR(p) bands at mult around hl2.
func SuperTrend(high, low, close []float64, p int, mult float64) (line, direction []float64) {
	n := minLen(high, low, close)
	atr := ATR(high, low, close, p)
	line = nanSlice(n)
	direction = nanSlice(n)

	var upper, lower float64
	trend := 1.0
	started := false
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) {
			continue
		}
		mid := (high[i] + low[i]) / 2
		basicUpper := mid + mult*atr[i]
		basicLower := mid - mult*atr[i]

		if !started {
			upper, lower = basicUpper, basicLower
			started = true
		} else {
			if basicUpper < upper || close[i-1] > upper {
				upper = basicUpper
			}
			if basicLower > lower || close[i-1] < lower {
				lower = basicLower
			}
			prevLine := line[i-1]
			switch {
			case trend < 0 && close[i] > prevLine:
				trend = 1
			case trend > 0 && close[i] < prevLine:
				trend = -1
			}
		}

		if trend > 0 {
			line[i] = lower
		} else {
			line[i] = upper
		}
		direction[i] = trend
	}
	return line, direction
}
