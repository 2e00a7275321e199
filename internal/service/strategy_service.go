// Package service wires the scanner, sandbox, simulator and optimizer into
// the pipelines used by the CLI and the watch scheduler.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/optimizer"
	"github.com/yourusername/scriptlab/internal/sandbox"
	"github.com/yourusername/scriptlab/internal/scanner"
)

// StrategyService runs scripts end to end
type StrategyService struct {
	executor  *sandbox.Executor
	engine    *backtest.Engine
	optimizer *optimizer.Optimizer
	logger    *logrus.Logger
}

// NewStrategyService creates a new strategy service
func NewStrategyService(
	executor *sandbox.Executor,
	engine *backtest.Engine,
	opt *optimizer.Optimizer,
	logger *logrus.Logger,
) *StrategyService {
	if logger == nil {
		logger = logrus.New()
	}
	return &StrategyService{
		executor:  executor,
		engine:    engine,
		optimizer: opt,
		logger:    logger,
	}
}

// ScriptInput is a script plus the data it runs on
type ScriptInput struct {
	Script    string
	Bars      []models.Bar
	AuxBars   map[string][]models.Bar
	Overrides map[string]float64
}

// BacktestRun bundles every stage of one pipeline pass. Backtest is nil when
// the script failed.
type BacktestRun struct {
	Declarations scanner.Declarations       `json:"declarations"`
	Script       *models.ScriptResult       `json:"script"`
	Backtest     *backtest.Result           `json:"backtest,omitempty"`
	MonteCarlo   *backtest.MonteCarloResult `json:"monte_carlo,omitempty"`
}

// Scan lists the declarations of a script without running it
func (s *StrategyService) Scan(script string) scanner.Declarations {
	return scanner.Scan(script)
}

// Execute runs the script once. Requested resolutions missing from the
// input are logged; security() then throws inside the script.
func (s *StrategyService) Execute(ctx context.Context, in ScriptInput) (scanner.Declarations, *models.ScriptResult) {
	decl := scanner.Scan(in.Script)
	for _, res := range decl.Resolutions {
		if _, ok := in.AuxBars[res]; !ok {
			s.logger.WithField("resolution", res).Warn("Script requests a resolution with no bars loaded")
		}
	}
	result := s.executor.Execute(ctx, sandbox.Request{
		Script:    in.Script,
		Bars:      in.Bars,
		AuxBars:   in.AuxBars,
		Overrides: in.Overrides,
	})
	return decl, result
}

// Backtest runs scan, execute and simulate. Script failures are reported in
// the returned run; only simulator errors are returned as errors.
func (s *StrategyService) Backtest(ctx context.Context, in ScriptInput) (*BacktestRun, error) {
	decl, result := s.Execute(ctx, in)
	run := &BacktestRun{Declarations: decl, Script: result}
	if result.Failed() {
		s.logger.WithFields(logrus.Fields{
			"kind":  result.ErrorKind,
			"error": result.Error,
		}).Warn("Script failed, skipping simulation")
		return run, nil
	}

	bt, err := s.engine.Run(result.Signals, in.Bars)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	run.Backtest = bt

	cfg := s.engine.Config()
	if cfg.MonteCarloIterations > 0 && len(bt.Trades) > 0 {
		mc, err := backtest.RunMonteCarlo(ctx, bt.Trades, backtest.MonteCarloConfig{
			Iterations:     cfg.MonteCarloIterations,
			Seed:           cfg.MonteCarloSeed,
			InitialCapital: cfg.InitialCapital,
		})
		if err != nil {
			return nil, fmt.Errorf("monte carlo failed: %w", err)
		}
		run.MonteCarlo = &mc
	}
	return run, nil
}

// Optimize sweeps ranges, falling back to ranges derived from the script's
// declarations when none are given.
func (s *StrategyService) Optimize(ctx context.Context, in ScriptInput, ranges map[string]optimizer.Range) (*optimizer.Report, error) {
	if s.optimizer == nil {
		return nil, fmt.Errorf("optimizer is not configured")
	}
	return s.optimizer.Search(ctx, s.searchRequest(in, ranges))
}

// WalkForward runs walk-forward validation over in.Bars
func (s *StrategyService) WalkForward(ctx context.Context, in ScriptInput, ranges map[string]optimizer.Range, cfg optimizer.WalkForwardConfig) (optimizer.WalkForwardResult, error) {
	if s.optimizer == nil {
		return optimizer.WalkForwardResult{}, fmt.Errorf("optimizer is not configured")
	}
	return s.optimizer.RunWalkForward(ctx, s.searchRequest(in, ranges), cfg)
}

func (s *StrategyService) searchRequest(in ScriptInput, ranges map[string]optimizer.Range) optimizer.Request {
	if len(ranges) == 0 {
		ranges = optimizer.DefaultRanges(scanner.Scan(in.Script))
	}
	return optimizer.Request{
		Script:  in.Script,
		Bars:    in.Bars,
		AuxBars: in.AuxBars,
		Ranges:  ranges,
	}
}

// Summary is a one-line description of a run for logs
func (r *BacktestRun) Summary() logrus.Fields {
	fields := logrus.Fields{
		"signals":  len(r.Script.Signals),
		"duration": r.Script.Duration.Round(time.Microsecond).String(),
	}
	if r.Script.Failed() {
		fields["error"] = r.Script.Error
		return fields
	}
	if r.Backtest != nil {
		fields["run_id"] = r.Backtest.RunID
		fields["trades"] = r.Backtest.Metrics.TotalTrades
		fields["net_profit"] = r.Backtest.Metrics.NetProfit
		fields["final_equity"] = r.Backtest.FinalEquity
		fields["liquidated"] = r.Backtest.Liquidated
	}
	return fields
}
