package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "SCRIPTLAB"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads configPath and expands ${VAR} placeholders before parsing
func readExpanded(v *viper.Viper, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// The file must exist.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	if err := readExpanded(v, configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for every field.
// A missing file is not an error; defaults and SCRIPTLAB_* variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if err := readExpanded(v, configPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scriptlab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("executor.timeout_ms", 5000)
	v.SetDefault("executor.cache_ttl_seconds", 600)
	v.SetDefault("executor.cache_cleanup_seconds", 1200)

	v.SetDefault("backtest.initial_capital", 100000.0)
	v.SetDefault("backtest.commission_rate", 0.0005)
	v.SetDefault("backtest.slippage_rate", 0.0005)
	v.SetDefault("backtest.monte_carlo_iterations", 1000)

	v.SetDefault("optimizer.max_combinations", 200)
	v.SetDefault("optimizer.workers", 1)
	v.SetDefault("optimizer.yield_interval_ms", 1)
	v.SetDefault("optimizer.initial_capital", 10000.0)
	v.SetDefault("optimizer.commission_rate", 0.001)
	v.SetDefault("optimizer.slippage_rate", 0.0005)

	v.SetDefault("walk_forward.train_bars", 500)
	v.SetDefault("walk_forward.test_bars", 100)
	v.SetDefault("walk_forward.step_bars", 100)
	v.SetDefault("walk_forward.min_trades", 1)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("watch.schedule", "@every 1m")
	v.SetDefault("watch.health_port", 0)
}
