package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for simulator runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: orDefault(baseLogger).WithField("component", "backtest"),
	}
}

// LogBacktestRun logs the summary of a finished simulation.
func (bl *BacktestLogger) LogBacktestRun(runID string, bars, trades int, finalEquity, netProfitPercent float64, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"run_id":             runID,
		"bars":               bars,
		"trades":             trades,
		"final_equity":       finalEquity,
		"net_profit_percent": netProfitPercent,
		"duration_ms":        float64(duration.Microseconds()) / 1000,
	}).Info("Backtest completed")
}

// LogLiquidation logs a run that stopped because equity reached zero.
func (bl *BacktestLogger) LogLiquidation(runID string, at time.Time, barIndex int) {
	bl.WithFields(logrus.Fields{
		"run_id":        runID,
		"liquidated_at": at.UTC().Format(time.RFC3339),
		"bar_index":     barIndex,
	}).Warn("Account liquidated, simulation halted")
}
