package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/scriptlab/internal/models"
)

// cashBuffer is the share of available cash withheld when sizing a position
const cashBuffer = 0.01

// account tracks cash, realized PnL and the single open position of a run
type account struct {
	initial  float64
	cash     float64
	realized float64
	cfg      Config

	position   *models.Trade
	entryComm  float64
	collateral float64

	closed []models.Trade
	logs   []string
}

func newAccount(cfg Config) *account {
	return &account{
		initial: cfg.InitialCapital,
		cash:    cfg.InitialCapital,
		cfg:     cfg,
		closed:  []models.Trade{},
		logs:    []string{},
	}
}

func (a *account) logf(t time.Time, format string, args ...interface{}) {
	a.logs = append(a.logs, fmt.Sprintf("[%s] ", t.UTC().Format(time.RFC3339))+fmt.Sprintf(format, args...))
}

// equity marks the open position at price. Commissions are only counted once realized.
func (a *account) equity(price float64) float64 {
	eq := a.initial + a.realized
	if a.position != nil {
		eq += a.position.UnrealizedPnL(price)
	}
	return eq
}

// open enters a new position sized from available cash
func (a *account) open(side models.TradeSide, price float64, at time.Time) {
	available := a.cash
	if available <= 0 || price <= 0 {
		a.logf(at, "Skipped %s entry: no available cash", side)
		return
	}
	size := available * (1 - cashBuffer) / (price * (1 + a.cfg.CommissionRate))
	if size <= 0 {
		a.logf(at, "Skipped %s entry: size is zero", side)
		return
	}

	notional := size * price
	a.entryComm = notional * a.cfg.CommissionRate
	a.cash -= a.entryComm
	if side == models.SideLong {
		a.cash -= notional
	} else {
		// short proceeds are held as collateral
		a.collateral = notional
		a.cash -= notional
	}

	a.position = &models.Trade{
		ID:         fmt.Sprintf("trade-%d", len(a.closed)+1),
		Side:       side,
		EntryTime:  at,
		EntryPrice: price,
		Size:       size,
		Status:     models.TradeOpen,
	}
	a.logf(at, "Opened %s %.6f @ %.4f", side, size, price)
}

// close realizes the open position at price
func (a *account) close(price float64, at time.Time, reason string) {
	pos := a.position
	if pos == nil {
		return
	}

	exitComm := pos.Size * price * a.cfg.CommissionRate
	gross := pos.UnrealizedPnL(price)
	pnl := gross - a.entryComm - exitComm
	pnlPercent := 0.0
	if n := pos.EntryNotional(); n > 0 {
		pnlPercent = pnl / n * 100
	}

	if pos.Side == models.SideLong {
		a.cash += pos.Size*price - exitComm
	} else {
		a.cash += a.collateral + gross - exitComm
		a.collateral = 0
	}
	a.realized += pnl

	exitTime := at
	exitPrice := price
	pos.ExitTime = &exitTime
	pos.ExitPrice = &exitPrice
	pos.PnL = &pnl
	pos.PnLPercent = &pnlPercent
	pos.Status = models.TradeClosed

	a.closed = append(a.closed, *pos)
	a.position = nil
	a.entryComm = 0
	a.logf(at, "Closed %s @ %.4f (%s). PnL: %.2f (%.2f%%)", pos.Side, price, reason, pnl, pnlPercent)
}

// liquidate closes the position at price and caps its loss at the capital
// still held, so realized PnL never drops below -initial.
func (a *account) liquidate(price float64, at time.Time) {
	a.close(price, at, "liquidation")
	shortfall := -(a.initial + a.realized)
	if shortfall <= 0 || len(a.closed) == 0 {
		return
	}

	last := &a.closed[len(a.closed)-1]
	pnl := *last.PnL + shortfall
	pnlPercent := 0.0
	if n := last.EntryNotional(); n > 0 {
		pnlPercent = pnl / n * 100
	}
	last.PnL = &pnl
	last.PnLPercent = &pnlPercent
	a.realized = -a.initial
	a.cash = 0
	a.logf(at, "Loss capped at remaining capital, %.2f written off", shortfall)
}

// ledger returns closed trades most recent first
func (a *account) ledger() []models.Trade {
	out := make([]models.Trade, len(a.closed))
	for i, t := range a.closed {
		out[len(a.closed)-1-i] = t
	}
	return out
}
