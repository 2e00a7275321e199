// Package config provides configuration management for scriptlab.
package config

import "time"

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Executor    ExecutorConfig    `mapstructure:"executor" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	Optimizer   OptimizerConfig   `mapstructure:"optimizer" validate:"required"`
	WalkForward WalkForwardConfig `mapstructure:"walk_forward"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Watch       WatchConfig       `mapstructure:"watch"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ExecutorConfig controls the script sandbox
type ExecutorConfig struct {
	TimeoutMs           int `mapstructure:"timeout_ms" validate:"required,gt=0"`
	CacheTTLSeconds     int `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheCleanupSeconds int `mapstructure:"cache_cleanup_seconds" validate:"gte=0"`
}

// BacktestConfig represents simulation options for single backtest runs
type BacktestConfig struct {
	InitialCapital       float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	CommissionRate       float64 `mapstructure:"commission_rate" validate:"gte=0,lt=1"`
	SlippageRate         float64 `mapstructure:"slippage_rate" validate:"gte=0,lt=1"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"gte=0"`
}

// OptimizerConfig represents parameter search settings
type OptimizerConfig struct {
	MaxCombinations int     `mapstructure:"max_combinations" validate:"required,gt=0"`
	Workers         int     `mapstructure:"workers" validate:"required,gt=0"`
	YieldIntervalMs int     `mapstructure:"yield_interval_ms" validate:"gte=0"`
	InitialCapital  float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	CommissionRate  float64 `mapstructure:"commission_rate" validate:"gte=0,lt=1"`
	SlippageRate    float64 `mapstructure:"slippage_rate" validate:"gte=0,lt=1"`
}

// WalkForwardConfig represents walk-forward window sizes in bars
type WalkForwardConfig struct {
	TrainBars int `mapstructure:"train_bars" validate:"gte=0"`
	TestBars  int `mapstructure:"test_bars" validate:"gte=0"`
	StepBars  int `mapstructure:"step_bars" validate:"gte=0"`
	MinTrades int `mapstructure:"min_trades" validate:"gte=0"`
}

// MetricsConfig represents the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// WatchConfig represents the watch-mode schedule
type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
	// HealthPort serves /health, /live and /ready while watching; 0 disables it
	HealthPort int `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ExecutionTimeout returns the sandbox supervisor timeout
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.Executor.TimeoutMs) * time.Millisecond
}

// YieldInterval returns the pause between sequential search combinations
func (c *Config) YieldInterval() time.Duration {
	return time.Duration(c.Optimizer.YieldIntervalMs) * time.Millisecond
}
