// Package main provides the scriptlab command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/config"
	"github.com/yourusername/scriptlab/internal/logger"
	"github.com/yourusername/scriptlab/internal/metrics"
	"github.com/yourusername/scriptlab/internal/optimizer"
	"github.com/yourusername/scriptlab/internal/sandbox"
	"github.com/yourusername/scriptlab/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile   string
	outputFormat string

	appLogger   *logrus.Logger
	cfg         *config.Config
	strategySvc *service.StrategyService
	metricsSrv  *http.Server
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text, json, yaml")

	rootCmd.AddCommand(scanCmd, runCmd, backtestCmd, optimizeCmd, walkForwardCmd, watchCmd, convertCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "scriptlab",
	Short: "Script, backtest and optimize trading strategies",
	Long: `scriptlab runs user strategy scripts in a sandbox against OHLCV bars,
simulates the resulting signals and searches declared parameters for the best settings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopMetricsServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptlab %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func setupDependencies() error {
	// results go to stdout, logs to stderr
	appLogger = logger.NewLoggerWithOutput(cfg.App.LogLevel, os.Stderr)

	executor := sandbox.NewExecutor(sandbox.Options{
		Timeout:      cfg.ExecutionTimeout(),
		CacheTTL:     time.Duration(cfg.Executor.CacheTTLSeconds) * time.Second,
		CacheCleanup: time.Duration(cfg.Executor.CacheCleanupSeconds) * time.Second,
	}, appLogger)

	btConfig, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return err
	}
	engine, err := backtest.NewEngine(btConfig, appLogger)
	if err != nil {
		return err
	}

	opts := optimizer.FromConfig(cfg)
	opts.OnProgress = func(done, total int) {
		appLogger.WithFields(logrus.Fields{"done": done, "total": total}).Debug("Search progress")
	}
	opt, err := optimizer.New(executor, opts, appLogger)
	if err != nil {
		return err
	}

	strategySvc = service.NewStrategyService(executor, engine, opt, appLogger)
	return startMetricsServer()
}

func startMetricsServer() error {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics.InitRegistry()

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	metricsSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Error("Metrics server failed")
		}
	}()
	appLogger.WithFields(logrus.Fields{
		"port": cfg.Metrics.Port,
		"path": cfg.Metrics.Path,
	}).Info("Metrics server started")
	return nil
}

func stopMetricsServer() error {
	if metricsSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return metricsSrv.Shutdown(ctx)
}
