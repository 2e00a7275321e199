// Package optimizer sweeps declared script parameters, replaying each
// combination through the sandbox and the backtest simulator.
package optimizer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/config"
	"github.com/yourusername/scriptlab/internal/logger"
	"github.com/yourusername/scriptlab/internal/metrics"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/sandbox"
	"github.com/yourusername/scriptlab/internal/scanner"
)

// Options configures a search
type Options struct {
	MaxCombinations int
	// Workers above 1 evaluates combinations concurrently
	Workers int
	// YieldInterval paces sequential searches between combinations
	YieldInterval time.Duration
	Backtest      backtest.Config
	// OnProgress is called after every evaluated combination
	OnProgress func(done, total int)
}

// DefaultOptions mirrors the reference search settings
func DefaultOptions() Options {
	return Options{
		MaxCombinations: DefaultMaxCombinations,
		Workers:         1,
		YieldInterval:   time.Millisecond,
		Backtest: backtest.Config{
			InitialCapital: 10000,
			CommissionRate: 0.001,
			SlippageRate:   0.0005,
		},
	}
}

// FromConfig converts app config to search options
func FromConfig(cfg *config.Config) Options {
	return Options{
		MaxCombinations: cfg.Optimizer.MaxCombinations,
		Workers:         cfg.Optimizer.Workers,
		YieldInterval:   cfg.YieldInterval(),
		Backtest: backtest.Config{
			InitialCapital: cfg.Optimizer.InitialCapital,
			CommissionRate: cfg.Optimizer.CommissionRate,
			SlippageRate:   cfg.Optimizer.SlippageRate,
		},
	}
}

// Request describes one search
type Request struct {
	Script  string
	Bars    []models.Bar
	AuxBars map[string][]models.Bar
	Ranges  map[string]Range
}

// Report is the ranked outcome of a search
type Report struct {
	RunID   string                      `json:"run_id"`
	Results []models.OptimizationResult `json:"results"`
	// Total is the size of the full cartesian product before the cap
	Total     int           `json:"total"`
	Explored  int           `json:"explored"`
	Failed    int           `json:"failed"`
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration"`
}

// Optimizer runs parameter searches. It is safe for concurrent use.
type Optimizer struct {
	executor *sandbox.Executor
	engine   *backtest.Engine
	opts     Options
	logger   *logger.OptimizerLogger
}

// New creates an optimizer on top of an executor
func New(executor *sandbox.Executor, opts Options, log *logrus.Logger) (*Optimizer, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if opts.MaxCombinations <= 0 {
		opts.MaxCombinations = DefaultMaxCombinations
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	engine, err := backtest.NewEngine(opts.Backtest, log)
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		executor: executor,
		engine:   engine,
		opts:     opts,
		logger:   logger.NewOptimizerLogger(log),
	}, nil
}

// Optimize returns one result per explored combination, best net profit first.
// Combinations whose script fails are omitted.
func (o *Optimizer) Optimize(ctx context.Context, script string, bars []models.Bar, ranges map[string]Range) ([]models.OptimizationResult, error) {
	report, err := o.Search(ctx, Request{Script: script, Bars: bars, Ranges: ranges})
	if err != nil {
		return []models.OptimizationResult{}, err
	}
	return report.Results, nil
}

// Search runs the capped cartesian sweep described by req
func (o *Optimizer) Search(ctx context.Context, req Request) (*Report, error) {
	if len(req.Ranges) == 0 {
		return nil, models.ErrEmptyRanges
	}

	start := time.Now()
	keys := scanner.OrderedKeys(scanner.Scan(req.Script), req.Ranges)
	combos, total := enumerate(keys, req.Ranges, o.opts.MaxCombinations)
	report := &Report{
		RunID:     uuid.NewString(),
		Total:     total,
		Explored:  len(combos),
		Truncated: total > len(combos),
	}

	var (
		results []models.OptimizationResult
		err     error
	)
	if o.opts.Workers > 1 {
		results, err = o.searchParallel(ctx, report.RunID, req, combos)
	} else {
		results, err = o.searchSequential(ctx, report.RunID, req, combos)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].NetProfit > results[j].NetProfit
	})
	report.Results = results
	report.Failed = len(combos) - len(results)
	report.Duration = time.Since(start)

	best := 0.0
	if len(results) > 0 {
		best = results[0].NetProfit
	}
	metrics.RecordOptimizerRun(report.Duration)
	o.logger.LogSearchCompleted(report.RunID, report.Explored, len(results), report.Truncated, best, report.Duration)
	return report, nil
}

// searchSequential evaluates combinations in order, pausing between them
func (o *Optimizer) searchSequential(ctx context.Context, runID string, req Request, combos []map[string]float64) ([]models.OptimizationResult, error) {
	limit := rate.Inf
	if o.opts.YieldInterval > 0 {
		limit = rate.Every(o.opts.YieldInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]models.OptimizationResult, 0, len(combos))
	for i, params := range combos {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search interrupted: %w", err)
		}
		if res, ok := o.evaluate(ctx, runID, req, params); ok {
			results = append(results, res)
		}
		o.progress(i+1, len(combos))
	}
	return results, nil
}

// searchParallel fans combinations out over a bounded worker pool
func (o *Optimizer) searchParallel(ctx context.Context, runID string, req Request, combos []map[string]float64) ([]models.OptimizationResult, error) {
	type slot struct {
		result models.OptimizationResult
		ok     bool
	}
	slots := make([]slot, len(combos))

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, params := range combos {
		i, params := i, params
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, ok := o.evaluate(gctx, runID, req, params)
			slots[i] = slot{result: res, ok: ok}

			mu.Lock()
			done++
			o.progress(done, len(combos))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search interrupted: %w", err)
	}

	results := make([]models.OptimizationResult, 0, len(combos))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.result)
		}
	}
	return results, nil
}

// evaluate runs one combination through the sandbox and the simulator
func (o *Optimizer) evaluate(ctx context.Context, runID string, req Request, params map[string]float64) (models.OptimizationResult, bool) {
	res := o.executor.Execute(ctx, sandbox.Request{
		Script:    req.Script,
		Bars:      req.Bars,
		AuxBars:   req.AuxBars,
		Overrides: params,
	})
	if res.Failed() {
		metrics.RecordCombination("failed")
		o.logger.LogCombinationFailure(runID, params, res.Error)
		return models.OptimizationResult{}, false
	}

	out := models.OptimizationResult{Params: params}
	if len(res.Signals) > 0 {
		bt, err := o.engine.Run(res.Signals, req.Bars)
		if err != nil {
			metrics.RecordCombination("failed")
			o.logger.LogCombinationFailure(runID, params, err.Error())
			return models.OptimizationResult{}, false
		}
		sharpe := bt.Metrics.SharpeRatio
		drawdown := bt.Metrics.MaxDrawdown
		out.NetProfit = bt.Metrics.NetProfit
		out.NetProfitPercent = bt.Metrics.NetProfitPercent
		out.Sharpe = &sharpe
		out.MaxDrawdown = &drawdown
		out.TradeCount = bt.Metrics.TotalTrades
	}

	metrics.RecordCombination("ok")
	o.logger.LogCombination(runID, params, out.NetProfit, out.TradeCount)
	return out, true
}

func (o *Optimizer) progress(done, total int) {
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(done, total)
	}
}
