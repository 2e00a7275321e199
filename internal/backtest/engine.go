// Package backtest replays strategy signals bar by bar against a price series
// and derives performance metrics from the resulting trades and equity curve.
package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/scriptlab/internal/logger"
	"github.com/yourusername/scriptlab/internal/metrics"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/series"
)

// Result is the output of one simulation
type Result struct {
	RunID       string         `json:"run_id"`
	Trades      []models.Trade `json:"trades"`
	Metrics     Metrics        `json:"metrics"`
	EquityCurve EquityCurve    `json:"equity_curve"`
	Logs        []string       `json:"logs"`
	FinalEquity float64        `json:"final_equity"`
	Liquidated  bool           `json:"liquidated"`
}

// Engine runs simulations with fixed options. It holds no per-run state.
type Engine struct {
	config Config
	logger *logger.BacktestLogger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg Config, log *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	return &Engine{
		config: cfg,
		logger: logger.NewBacktestLogger(log),
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Run simulates signals over bars. Each signal is filled at the open of the bar
// after the one it was emitted on; the last signal on a bar wins.
func (e *Engine) Run(signals []models.Signal, bars []models.Bar) (*Result, error) {
	start := time.Now()
	if err := series.Validate(bars); err != nil {
		metrics.RecordBacktestRun("failure", false, time.Since(start))
		return nil, err
	}

	runID := uuid.NewString()
	acc := newAccount(e.config)
	curve := newCurveBuilder(len(bars))
	slip := e.config.SlippageRate

	pending := indexSignals(signals, bars, acc)
	var queued *models.Signal
	liquidated := false

	for i, bar := range bars {
		if queued != nil {
			e.fill(acc, *queued, bar)
			queued = nil
		}

		equity := acc.equity(bar.Close)
		if equity <= 0 {
			curve.add(bar.Time, 0)
			acc.liquidate(bar.Close, bar.Time)
			acc.logf(bar.Time, "Liquidated: equity reached zero, stopping at bar %d", i)
			e.logger.LogLiquidation(runID, bar.Time, i)
			liquidated = true
			break
		}
		curve.add(bar.Time, equity)

		if sig, ok := pending[bar.Key()]; ok {
			if i == len(bars)-1 {
				acc.logf(bar.Time, "%s signal on last bar not executed", sig.Kind)
			} else {
				s := sig
				queued = &s
			}
		}
	}

	if !liquidated && acc.position != nil {
		last := bars[len(bars)-1]
		price := last.Close * (1 - slip)
		if acc.position.Side == models.SideShort {
			price = last.Close * (1 + slip)
		}
		acc.close(price, last.Time, "end of data")
	}

	trades := acc.ledger()
	result := &Result{
		RunID:       runID,
		Trades:      trades,
		Metrics:     CalculateMetrics(trades, curve.curve, bars, e.config.InitialCapital),
		EquityCurve: curve.curve,
		Logs:        acc.logs,
		FinalEquity: acc.initial + acc.realized,
		Liquidated:  liquidated,
	}
	result.Metrics.Liquidated = liquidated

	duration := time.Since(start)
	metrics.RecordBacktestRun("success", liquidated, duration)
	e.logger.LogBacktestRun(runID, len(curve.curve), len(trades), result.FinalEquity, result.Metrics.NetProfitPercent, duration)
	return result, nil
}

// fill executes a queued signal at the bar open adjusted for slippage
func (e *Engine) fill(acc *account, sig models.Signal, bar models.Bar) {
	slip := e.config.SlippageRate
	switch sig.Kind {
	case models.SignalBuy:
		price := bar.Open * (1 + slip)
		if acc.position != nil && acc.position.Side == models.SideLong {
			return
		}
		if acc.position != nil {
			acc.close(price, bar.Time, "reversal")
		}
		acc.open(models.SideLong, price, bar.Time)
	case models.SignalSell:
		price := bar.Open * (1 - slip)
		if acc.position != nil && acc.position.Side == models.SideShort {
			return
		}
		if acc.position != nil {
			acc.close(price, bar.Time, "reversal")
		}
		acc.open(models.SideShort, price, bar.Time)
	}
}

// indexSignals keys signals by bar time, keeping the last one per bar.
// Signals that match no bar are dropped and counted in the run log.
func indexSignals(signals []models.Signal, bars []models.Bar, acc *account) map[int64]models.Signal {
	barTimes := make(map[int64]bool, len(bars))
	for _, b := range bars {
		barTimes[b.Key()] = true
	}

	out := make(map[int64]models.Signal, len(signals))
	unmatched := 0
	for _, s := range signals {
		if !barTimes[s.Key()] {
			unmatched++
			continue
		}
		out[s.Key()] = s
	}
	if unmatched > 0 {
		acc.logf(bars[0].Time, "%d signals did not match a bar time and were ignored", unmatched)
	}
	return out
}

// Simulate runs a one-off simulation without an explicit engine
func Simulate(signals []models.Signal, bars []models.Bar, cfg Config, log *logrus.Logger) (*Result, error) {
	engine, err := NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}
	return engine.Run(signals, bars)
}
