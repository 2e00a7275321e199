package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/backtest"
)

func TestRunWalkForward(t *testing.T) {
	bars := waveBars(120)
	opt := newTestOptimizer(t, nil)

	result, err := opt.RunWalkForward(context.Background(), Request{
		Script: crossScript,
		Bars:   bars,
		Ranges: map[string]Range{"Length": {Start: 5, End: 7, Step: 1}},
	}, WalkForwardConfig{TrainBars: 40, TestBars: 20})
	require.NoError(t, err)
	require.Len(t, result.Windows, 4)

	first := result.Windows[0]
	assert.Equal(t, 1, first.WindowID)
	assert.Equal(t, bars[0].Time, first.TrainStart)
	assert.Equal(t, bars[39].Time, first.TrainEnd)
	assert.Equal(t, bars[40].Time, first.TestStart)
	assert.Equal(t, bars[59].Time, first.TestEnd)
	assert.Contains(t, first.Best.Params, "Length")

	last := result.Windows[3]
	assert.Equal(t, bars[119].Time, last.TestEnd)
	assert.GreaterOrEqual(t, result.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, result.ConsistencyScore, 1.0)
}

func TestRunWalkForwardValidation(t *testing.T) {
	opt := newTestOptimizer(t, nil)
	_, err := opt.RunWalkForward(context.Background(), Request{Script: crossScript, Bars: waveBars(10)}, WalkForwardConfig{TrainBars: 5, TestBars: 5})
	assert.Error(t, err)

	_, err = opt.RunWalkForward(context.Background(), Request{
		Script: crossScript,
		Bars:   waveBars(10),
		Ranges: map[string]Range{"Length": {Start: 5, End: 5, Step: 1}},
	}, WalkForwardConfig{TrainBars: 0, TestBars: 5})
	assert.Error(t, err)
}

func TestWalkForwardScores(t *testing.T) {
	windows := []WalkForwardWindow{
		{TrainMetrics: backtest.Metrics{NetProfitPercent: 10}, TestMetrics: backtest.Metrics{NetProfit: 50, NetProfitPercent: 5}},
		{TrainMetrics: backtest.Metrics{NetProfitPercent: 10}, TestMetrics: backtest.Metrics{NetProfit: -20, NetProfitPercent: -2}},
	}
	assert.Equal(t, 0.5, CalculateConsistency(windows))
	assert.InDelta(t, (20.0-3.0)/20.0, calculateOverfitScore(windows), 1e-12)

	agg := aggregateWalkForward(windows)
	assert.InDelta(t, 1.5, agg.NetProfitPercent, 1e-12)
	assert.InDelta(t, 30.0, agg.NetProfit, 1e-12)
	assert.Equal(t, 0.0, CalculateConsistency(nil))
}
