package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScriptExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "script_executions_total",
		Help:      "Total number of script executions by status",
	}, []string{"status"})
	ScriptSignalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "script_signals_total",
		Help:      "Total number of signals emitted by scripts",
	})
	ScriptExecutionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "script_execution_duration_seconds",
		Help:      "Duration of script executions in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// RecordScriptExecution records one execution.
// status is "success" or the failure kind: "compile", "runtime", "timeout", "canceled".
func RecordScriptExecution(status string, signals int, duration time.Duration) {
	ScriptExecutionsTotal.WithLabelValues(status).Inc()
	ScriptSignalsTotal.Add(float64(signals))
	ScriptExecutionDuration.Observe(duration.Seconds())
}
