package series

import (
	"math"
	"sort"
	"time"
)

// AlignTo maps an auxiliary series onto primary bar times. Each primary bar
// takes the value of the last auxiliary bar whose time is not after it; bars
// before the first auxiliary bar get NaN.
func AlignTo(primary []time.Time, auxTimes []time.Time, auxValues []float64) []float64 {
	out := make([]float64, len(primary))
	for i, t := range primary {
		j := sort.Search(len(auxTimes), func(k int) bool { return auxTimes[k].After(t) }) - 1
		if j < 0 || j >= len(auxValues) {
			out[i] = math.NaN()
			continue
		}
		out[i] = auxValues[j]
	}
	return out
}

// Field returns the named price array of a market, or nil when unknown
func (m *Market) Field(name string) []float64 {
	switch name {
	case "open":
		return m.Open
	case "high":
		return m.High
	case "low":
		return m.Low
	case "close":
		return m.Close
	case "volume":
		return m.Volume
	case "hl2":
		return m.HL2()
	case "hlc3":
		return m.HLC3()
	case "ohlc4":
		return m.OHLC4()
	default:
		return nil
	}
}
