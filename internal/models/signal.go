package models

import (
	"fmt"
	"strings"
	"time"
)

// SignalKind is the direction of a script signal
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// ParseSignalKind normalizes a script-supplied kind
func ParseSignalKind(s string) (SignalKind, error) {
	switch SignalKind(strings.ToUpper(strings.TrimSpace(s))) {
	case SignalBuy:
		return SignalBuy, nil
	case SignalSell:
		return SignalSell, nil
	default:
		return "", fmt.Errorf("unknown signal kind %q", s)
	}
}

// Signal is a BUY/SELL event emitted by strategy logic, tied to a bar time
type Signal struct {
	Time  time.Time  `json:"time"`
	Kind  SignalKind `json:"type"`
	Price float64    `json:"price"`
	Label string     `json:"label,omitempty"`
}

// Key returns the map key used to match signals and bars by time
func (s Signal) Key() int64 {
	return s.Time.UnixNano()
}
