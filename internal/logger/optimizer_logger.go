package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// OptimizerLogger provides dedicated logging for parameter searches.
type OptimizerLogger struct {
	*logrus.Entry
}

// NewOptimizerLogger creates a new optimizer logger.
func NewOptimizerLogger(baseLogger *logrus.Logger) *OptimizerLogger {
	return &OptimizerLogger{
		Entry: orDefault(baseLogger).WithField("component", "optimizer"),
	}
}

// LogCombination logs the outcome of one parameter assignment.
func (ol *OptimizerLogger) LogCombination(runID string, params map[string]float64, netProfit float64, trades int) {
	ol.WithFields(logrus.Fields{
		"run_id":     runID,
		"params":     params,
		"net_profit": netProfit,
		"trades":     trades,
	}).Debug("Combination evaluated")
}

// LogCombinationFailure logs a combination dropped from the result set.
func (ol *OptimizerLogger) LogCombinationFailure(runID string, params map[string]float64, reason string) {
	ol.WithFields(logrus.Fields{
		"run_id": runID,
		"params": params,
		"reason": reason,
	}).Warn("Combination failed, skipping")
}

// LogSearchCompleted logs the summary of a finished search.
func (ol *OptimizerLogger) LogSearchCompleted(runID string, explored, succeeded int, truncated bool, bestNetProfit float64, duration time.Duration) {
	ol.WithFields(logrus.Fields{
		"run_id":          runID,
		"explored":        explored,
		"succeeded":       succeeded,
		"truncated":       truncated,
		"best_net_profit": bestNetProfit,
		"duration_ms":     float64(duration.Microseconds()) / 1000,
	}).Info("Parameter search completed")
}
