package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/scriptlab/internal/backtest"
	"github.com/yourusername/scriptlab/internal/config"
	"github.com/yourusername/scriptlab/internal/models"
	"github.com/yourusername/scriptlab/internal/sandbox"
)

// WalkForwardConfig sizes walk-forward windows in bars
type WalkForwardConfig struct {
	TrainBars int
	TestBars  int
	// StepBars defaults to TestBars
	StepBars  int
	MinTrades int
}

// WalkForwardFromConfig converts app config to walk-forward settings
func WalkForwardFromConfig(cfg *config.WalkForwardConfig) WalkForwardConfig {
	return WalkForwardConfig{
		TrainBars: cfg.TrainBars,
		TestBars:  cfg.TestBars,
		StepBars:  cfg.StepBars,
		MinTrades: cfg.MinTrades,
	}
}

// WalkForwardWindow is one optimize-then-replay step
type WalkForwardWindow struct {
	WindowID     int                       `json:"window_id"`
	TrainStart   time.Time                 `json:"train_start"`
	TrainEnd     time.Time                 `json:"train_end"`
	TestStart    time.Time                 `json:"test_start"`
	TestEnd      time.Time                 `json:"test_end"`
	Best         models.OptimizationResult `json:"best"`
	TrainMetrics backtest.Metrics          `json:"train_metrics"`
	TestMetrics  backtest.Metrics          `json:"test_metrics"`
}

// WalkForwardResult aggregates all windows
type WalkForwardResult struct {
	Windows           []WalkForwardWindow `json:"windows"`
	AggregatedMetrics backtest.Metrics    `json:"aggregated_metrics"`
	ConsistencyScore  float64             `json:"consistency_score"`
	OverfitScore      float64             `json:"overfit_score"`
}

// RunWalkForward optimizes on each training window and replays the best
// assignment on the bars that follow it. The script sees the training bars
// as warmup during replay; only signals inside the test window are traded.
func (o *Optimizer) RunWalkForward(ctx context.Context, req Request, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if cfg.TrainBars <= 0 || cfg.TestBars <= 0 {
		return WalkForwardResult{}, fmt.Errorf("train and test windows must be positive")
	}
	if len(req.Ranges) == 0 {
		return WalkForwardResult{}, models.ErrEmptyRanges
	}
	if cfg.StepBars <= 0 {
		cfg.StepBars = cfg.TestBars
	}

	bars := req.Bars
	windows := []WalkForwardWindow{}
	windowID := 0

	for start := 0; start+cfg.TrainBars < len(bars); start += cfg.StepBars {
		trainEnd := start + cfg.TrainBars
		testEnd := trainEnd + cfg.TestBars
		if testEnd > len(bars) {
			testEnd = len(bars)
		}
		windowID++

		train := req
		train.Bars = bars[start:trainEnd]
		report, err := o.Search(ctx, train)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("window %d: %w", windowID, err)
		}
		if len(report.Results) == 0 {
			continue
		}
		best := report.Results[0]

		trainRun, err := o.replay(ctx, req, best.Params, start, start, trainEnd)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("window %d: %w", windowID, err)
		}
		testRun, err := o.replay(ctx, req, best.Params, start, trainEnd, testEnd)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("window %d: %w", windowID, err)
		}
		if !meetsTradeThreshold(cfg.MinTrades, trainRun, testRun) {
			continue
		}

		windows = append(windows, WalkForwardWindow{
			WindowID:     windowID,
			TrainStart:   bars[start].Time,
			TrainEnd:     bars[trainEnd-1].Time,
			TestStart:    bars[trainEnd].Time,
			TestEnd:      bars[testEnd-1].Time,
			Best:         best,
			TrainMetrics: trainRun.Metrics,
			TestMetrics:  testRun.Metrics,
		})
	}

	return WalkForwardResult{
		Windows:           windows,
		AggregatedMetrics: aggregateWalkForward(windows),
		ConsistencyScore:  CalculateConsistency(windows),
		OverfitScore:      calculateOverfitScore(windows),
	}, nil
}

// replay executes the script over bars[warmup:to] and simulates the signals
// that fall within bars[from:to].
func (o *Optimizer) replay(ctx context.Context, req Request, params map[string]float64, warmup, from, to int) (*backtest.Result, error) {
	res := o.executor.Execute(ctx, sandbox.Request{
		Script:    req.Script,
		Bars:      req.Bars[warmup:to],
		AuxBars:   req.AuxBars,
		Overrides: params,
	})
	if res.Failed() {
		return nil, fmt.Errorf("replay failed: %s", res.Error)
	}

	window := req.Bars[from:to]
	first := window[0].Time
	signals := make([]models.Signal, 0, len(res.Signals))
	for _, s := range res.Signals {
		if !s.Time.Before(first) {
			signals = append(signals, s)
		}
	}
	return o.engine.Run(signals, window)
}

func meetsTradeThreshold(minTrades int, train, test *backtest.Result) bool {
	if minTrades <= 0 {
		return true
	}
	return train.Metrics.TotalTrades >= minTrades && test.Metrics.TotalTrades >= minTrades
}

// CalculateConsistency calculates the share of windows profitable out of sample
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.TestMetrics.NetProfit > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	trainReturn := 0.0
	testReturn := 0.0
	for _, w := range windows {
		trainReturn += w.TrainMetrics.NetProfitPercent
		testReturn += w.TestMetrics.NetProfitPercent
	}
	if trainReturn == 0 {
		return 0
	}
	return (trainReturn - testReturn) / trainReturn
}

func aggregateWalkForward(windows []WalkForwardWindow) backtest.Metrics {
	if len(windows) == 0 {
		return backtest.Metrics{}
	}
	m := backtest.Metrics{}
	for _, w := range windows {
		m.TotalTrades += w.TestMetrics.TotalTrades
		m.NetProfit += w.TestMetrics.NetProfit
		m.NetProfitPercent += w.TestMetrics.NetProfitPercent
		m.SharpeRatio += w.TestMetrics.SharpeRatio
		m.MaxDrawdown += w.TestMetrics.MaxDrawdown
	}
	n := float64(len(windows))
	m.NetProfitPercent /= n
	m.SharpeRatio /= n
	m.MaxDrawdown /= n
	return m
}

// ToJSON exports the walk-forward result to JSON
func (w WalkForwardResult) ToJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}
