// Package metrics provides centralized Prometheus metrics registry for scriptlab.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scriptlab"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Script execution metrics
		registry.MustRegister(ScriptExecutionsTotal)
		registry.MustRegister(ScriptSignalsTotal)
		registry.MustRegister(ScriptExecutionDuration)

		// Backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestLiquidationsTotal)
		registry.MustRegister(BacktestDuration)

		// Optimizer metrics
		registry.MustRegister(OptimizerCombinationsTotal)
		registry.MustRegister(OptimizerRunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
