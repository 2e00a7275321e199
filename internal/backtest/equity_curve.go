package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// EquityPoint represents a point in the equity curve
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve represents a time-series of equity points, one per processed bar
type EquityCurve []EquityPoint

// curveBuilder appends points while tracking the running peak
type curveBuilder struct {
	curve EquityCurve
	peak  float64
}

func newCurveBuilder(capacity int) *curveBuilder {
	return &curveBuilder{curve: make(EquityCurve, 0, capacity)}
}

func (b *curveBuilder) add(t time.Time, value float64) {
	if len(b.curve) == 0 || value > b.peak {
		b.peak = value
	}
	drawdown := 0.0
	if b.peak > 0 && value < b.peak {
		drawdown = (b.peak - value) / b.peak * 100
	}
	b.curve = append(b.curve, EquityPoint{Time: t, Value: value, Drawdown: drawdown})
}

// GetReturns calculates per-bar returns from equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		curr := e[i].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// GetVolatility calculates the population standard deviation of returns
func (e EquityCurve) GetVolatility() float64 {
	_, std := meanStd(e.GetReturns())
	return std
}

// GetDownsideDeviation calculates the root mean square of negative returns
func (e EquityCurve) GetDownsideDeviation() float64 {
	returns := e.GetReturns()
	variance := 0.0
	count := 0
	for _, r := range returns {
		if r < 0 {
			variance += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(variance / float64(count))
}

// MaxDrawdown returns the largest peak-to-trough decline in percent
func (e EquityCurve) MaxDrawdown() float64 {
	if len(e) == 0 {
		return 0
	}
	maxDD := 0.0
	peak := e[0].Value
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Value) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Time.UTC().Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
