package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ScriptLogger provides dedicated logging for sandboxed script executions.
type ScriptLogger struct {
	*logrus.Entry
}

// NewScriptLogger creates a new script logger.
func NewScriptLogger(baseLogger *logrus.Logger) *ScriptLogger {
	return &ScriptLogger{
		Entry: orDefault(baseLogger).WithField("component", "sandbox"),
	}
}

// LogExecution logs a completed script execution.
func (sl *ScriptLogger) LogExecution(bars, signals, plots, logLines int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"bars":        bars,
		"signals":     signals,
		"plots":       plots,
		"log_lines":   logLines,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Debug("Script execution completed")
}

// LogExecutionFailure logs a script that ended in a compile, runtime or timeout error.
func (sl *ScriptLogger) LogExecutionFailure(kind, message string, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"error_kind":  kind,
		"error":       message,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Warn("Script execution failed")
}

// LogParameterOverrides records which declared parameters were retargeted.
func (sl *ScriptLogger) LogParameterOverrides(overrides map[string]float64) {
	if len(overrides) == 0 {
		return
	}
	sl.WithField("overrides", overrides).Debug("Script parameters overridden")
}
