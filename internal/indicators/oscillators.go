package indicators

import "math"

// RSI uses Wilder smoothing; the first value is at index p
func RSI(x []float64, p int) []float64 {
	out := nanSlice(len(x))
	if p <= 0 || len(x) <= p {
		return out
	}
	var gain, loss float64
	for i := 1; i <= p; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(p)
	avgLoss := loss / float64(p)
	out[p] = rsiValue(avgGain, avgLoss)
	for i := p + 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(p-1) + g) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + l) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// TrueRange per bar; the first bar uses high-low
func TrueRange(high, low, close []float64) []float64 {
	n := minLen(high, low, close)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		out[i] = math.Max(hl, math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))
	}
	return out
}

// ATR is the Wilder-smoothed true range, seeded with the mean of the first p ranges
func ATR(high, low, close []float64, p int) []float64 {
	tr := TrueRange(high, low, close)
	out := nanSlice(len(tr))
	if p <= 0 || len(tr) < p {
		return out
	}
	var seed float64
	for i := 0; i < p; i++ {
		seed += tr[i]
	}
	out[p-1] = seed / float64(p)
	for i := p; i < len(tr); i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}

// MACD returns the fast-slow EMA spread, its signal EMA and the histogram
func MACD(x []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	fastEMA := EMA(x, fast)
	slowEMA := EMA(x, slow)
	macd = make([]float64, len(x))
	for i := range x {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig = EMA(macd, signal)
	hist = make([]float64, len(x))
	for i := range x {
		hist[i] = macd[i] - sig[i]
	}
	return
}

// Bollinger returns upper, middle and lower bands at mult standard deviations
func Bollinger(x []float64, p int, mult float64) (upper, middle, lower []float64) {
	mean, std := MeanStd(x, p)
	upper = make([]float64, len(x))
	lower = make([]float64, len(x))
	for i := range x {
		upper[i] = mean[i] + mult*std[i]
		lower[i] = mean[i] - mult*std[i]
	}
	return upper, mean, lower
}

// Stochastic returns %K over p bars and %D as the SMA of %K over signal bars
func Stochastic(high, low, close []float64, p, signal int) (k, d []float64) {
	hh := Highest(high, p)
	ll := Lowest(low, p)
	k = nanSlice(len(close))
	for i := range close {
		if i >= len(hh) || math.IsNaN(hh[i]) || math.IsNaN(ll[i]) {
			continue
		}
		span := hh[i] - ll[i]
		if span == 0 {
			k[i] = 50
			continue
		}
		k[i] = 100 * (close[i] - ll[i]) / span
	}
	d = SMA(k, signal)
	return
}

// CCI is the commodity channel index over typical price
func CCI(high, low, close []float64, p int) []float64 {
	n := minLen(high, low, close)
	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	sma := SMA(tp, p)
	out := nanSlice(n)
	for i := p - 1; i < n && p > 0; i++ {
		if math.IsNaN(sma[i]) {
			continue
		}
		var dev float64
		for j := i - p + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - sma[i])
		}
		dev /= float64(p)
		if dev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * dev)
	}
	return out
}

func minLen(a, b, c []float64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(c) < n {
		n = len(c)
	}
	return n
}
