package backtest

import (
	"fmt"

	"github.com/yourusername/scriptlab/internal/config"
)

// Config holds simulation options
type Config struct {
	InitialCapital       float64
	CommissionRate       float64
	SlippageRate         float64
	MonteCarloIterations int
	MonteCarloSeed       int64
}

// DefaultConfig mirrors the reference simulation defaults
func DefaultConfig() Config {
	return Config{
		InitialCapital:       100000,
		CommissionRate:       0.0005,
		SlippageRate:         0.0005,
		MonteCarloIterations: 1000,
	}
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("backtest config is required")
	}
	bt := Config{
		InitialCapital:       cfg.InitialCapital,
		CommissionRate:       cfg.CommissionRate,
		SlippageRate:         cfg.SlippageRate,
		MonteCarloIterations: cfg.MonteCarloIterations,
	}
	return bt, bt.Validate()
}

// Validate validates simulation options
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be in [0, 1)")
	}
	if c.SlippageRate < 0 || c.SlippageRate >= 1 {
		return fmt.Errorf("slippage rate must be in [0, 1)")
	}
	if c.MonteCarloIterations < 0 {
		return fmt.Errorf("monte carlo iterations cannot be negative")
	}
	return nil
}
