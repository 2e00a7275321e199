package models

import "time"

// Bar represents one OHLCV sample for a fixed time interval
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open" validate:"gte=0"`
	High   float64   `json:"high" validate:"gte=0"`
	Low    float64   `json:"low" validate:"gte=0"`
	Close  float64   `json:"close" validate:"gte=0"`
	Volume float64   `json:"volume,omitempty"`
}

// Key returns the map key used to match signals and bars by time
func (b Bar) Key() int64 {
	return b.Time.UnixNano()
}

// Tick is a single trade print used to update the live tail of a bar series
type Tick struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Size  float64   `json:"size"`
}
