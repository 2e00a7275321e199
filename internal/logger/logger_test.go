package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLoggerWithOutput("loud", buf)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level")
}

func TestNewLoggerLevel(t *testing.T) {
	log := NewLoggerWithOutput("debug", &bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestScriptLoggerExecution(t *testing.T) {
	log, buf := setupTestLogger()
	scriptLogger := NewScriptLogger(log)

	scriptLogger.LogExecution(100, 3, 2, 5, 1500*time.Microsecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "sandbox", logEntry["component"])
	assert.Equal(t, float64(3), logEntry["signals"])
	assert.Equal(t, 1.5, logEntry["duration_ms"])
}

func TestScriptLoggerFailure(t *testing.T) {
	log, buf := setupTestLogger()
	scriptLogger := NewScriptLogger(log)

	scriptLogger.LogExecutionFailure("timeout", "script execution timed out", time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "timeout", logEntry["error_kind"])
}

func TestScriptLoggerNoOverrides(t *testing.T) {
	log, buf := setupTestLogger()
	NewScriptLogger(log).LogParameterOverrides(nil)
	assert.Empty(t, buf.String())
}

func TestBacktestLoggerRun(t *testing.T) {
	log, buf := setupTestLogger()
	backtestLogger := NewBacktestLogger(log)

	backtestLogger.LogBacktestRun("run-1", 50, 2, 10500, 5, time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(10500), logEntry["final_equity"])
}

func TestBacktestLoggerLiquidation(t *testing.T) {
	log, buf := setupTestLogger()
	backtestLogger := NewBacktestLogger(log)

	at := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	backtestLogger.LogLiquidation("run-1", at, 7)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2024-01-02T03:00:00Z", logEntry["liquidated_at"])
	assert.Equal(t, float64(7), logEntry["bar_index"])
}

func TestOptimizerLoggerSearchCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	optimizerLogger := NewOptimizerLogger(log)

	optimizerLogger.LogSearchCompleted("opt-1", 200, 198, true, 1234.5, time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "optimizer", logEntry["component"])
	assert.Equal(t, true, logEntry["truncated"])
	assert.Equal(t, float64(198), logEntry["succeeded"])
}

func TestComponentLoggerNilBase(t *testing.T) {
	assert.NotNil(t, NewOptimizerLogger(nil).Entry)
}
