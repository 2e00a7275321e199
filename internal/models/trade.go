package models

import "time"

// TradeSide is the direction of a position
type TradeSide string

const (
	SideLong  TradeSide = "LONG"
	SideShort TradeSide = "SHORT"
)

// TradeStatus is the lifecycle state of a trade
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// Trade represents one position from entry to exit
type Trade struct {
	ID         string      `json:"id"`
	Side       TradeSide   `json:"side"`
	EntryTime  time.Time   `json:"entry_time"`
	EntryPrice float64     `json:"entry_price"`
	Size       float64     `json:"size"`
	ExitTime   *time.Time  `json:"exit_time,omitempty"`
	ExitPrice  *float64    `json:"exit_price,omitempty"`
	PnL        *float64    `json:"pnl,omitempty"`
	PnLPercent *float64    `json:"pnl_percent,omitempty"`
	Status     TradeStatus `json:"status"`
}

// IsClosed reports whether the trade has been exited
func (t *Trade) IsClosed() bool {
	return t.Status == TradeClosed
}

// RealizedPnL returns the net PnL of a closed trade, zero otherwise
func (t *Trade) RealizedPnL() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// ReturnPercent returns the percent PnL of a closed trade, zero otherwise
func (t *Trade) ReturnPercent() float64 {
	if t.PnLPercent == nil {
		return 0
	}
	return *t.PnLPercent
}

// EntryNotional is size times entry price
func (t *Trade) EntryNotional() float64 {
	return t.Size * t.EntryPrice
}

// UnrealizedPnL values the open position at mark, before costs
func (t *Trade) UnrealizedPnL(mark float64) float64 {
	diff := mark - t.EntryPrice
	if t.Side == SideShort {
		diff = -diff
	}
	return diff * t.Size
}
