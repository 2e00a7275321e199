package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OptimizerCombinationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "optimizer_combinations_total",
		Help:      "Total number of parameter combinations evaluated by outcome",
	}, []string{"outcome"})
	OptimizerRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "optimizer_run_duration_seconds",
		Help:      "Duration of full parameter searches in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordCombination records one combination outcome: "ok" or "failed".
func RecordCombination(outcome string) {
	OptimizerCombinationsTotal.WithLabelValues(outcome).Inc()
}

// RecordOptimizerRun records the duration of a completed search.
func RecordOptimizerRun(duration time.Duration) {
	OptimizerRunDuration.Observe(duration.Seconds())
}
