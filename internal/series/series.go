// Package series converts bar sequences into the parallel numeric arrays consumed
// by scripts and the simulator.
package series

import (
	"fmt"
	"time"

	"github.com/yourusername/scriptlab/internal/indicators"
	"github.com/yourusername/scriptlab/internal/models"
)

// Market holds parallel price arrays for one bar series. Every slice has the
// same length as the bars it was built from.
type Market struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Times  []time.Time
}

// FromBars builds a Market from a bar sequence. The bars are only read.
func FromBars(bars []models.Bar) *Market {
	n := len(bars)
	m := &Market{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
		Times:  make([]time.Time, n),
	}
	for i, b := range bars {
		m.Open[i] = b.Open
		m.High[i] = b.High
		m.Low[i] = b.Low
		m.Close[i] = b.Close
		m.Volume[i] = b.Volume
		m.Times[i] = b.Time
	}
	return m
}

// Len returns the number of bars
func (m *Market) Len() int {
	return len(m.Close)
}

// UnixTimes returns bar times as unix seconds
func (m *Market) UnixTimes() []float64 {
	out := make([]float64, len(m.Times))
	for i, t := range m.Times {
		out[i] = float64(t.Unix())
	}
	return out
}

// BarIndex returns 0..n-1
func (m *Market) BarIndex() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// HL2 is (high+low)/2
func (m *Market) HL2() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = (m.High[i] + m.Low[i]) / 2
	}
	return out
}

// HLC3 is (high+low+close)/3
func (m *Market) HLC3() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = (m.High[i] + m.Low[i] + m.Close[i]) / 3
	}
	return out
}

// OHLC4 is (open+high+low+close)/4
func (m *Market) OHLC4() []float64 {
	out := make([]float64, m.Len())
	for i := range out {
		out[i] = (m.Open[i] + m.High[i] + m.Low[i] + m.Close[i]) / 4
	}
	return out
}

// TrueRange returns the true range per bar; the first bar uses high-low
func (m *Market) TrueRange() []float64 {
	return indicators.TrueRange(m.High, m.Low, m.Close)
}

// Validate checks that bars are non-empty and strictly increasing in time
func Validate(bars []models.Bar) error {
	if len(bars) == 0 {
		return models.ErrNoBars
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s follows %s", models.ErrBarsNotIncreasing, i,
				bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
