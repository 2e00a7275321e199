package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/scriptlab/internal/models"
)

func TestRunMonteCarloDeterministic(t *testing.T) {
	trades := []models.Trade{closedTrade(100, 5), closedTrade(-50, -2), closedTrade(30, 1)}
	cfg := MonteCarloConfig{Iterations: 500, Seed: 42, InitialCapital: 1000}

	first, err := RunMonteCarlo(context.Background(), trades, cfg)
	require.NoError(t, err)
	second, err := RunMonteCarlo(context.Background(), trades, cfg)
	require.NoError(t, err)

	assert.Equal(t, 500, first.Iterations)
	assert.Len(t, first.Distribution, 500)
	assert.Equal(t, first.Distribution, second.Distribution)
	assert.GreaterOrEqual(t, first.ProbabilityOfProfit, 0.0)
	assert.LessOrEqual(t, first.ProbabilityOfProfit, 1.0)
	assert.LessOrEqual(t, first.VaR99, first.VaR95)
	assert.Contains(t, first.ConfidenceIntervals, "95%")
}

func TestRunMonteCarloAllWinners(t *testing.T) {
	trades := []models.Trade{closedTrade(10, 1), closedTrade(20, 2)}
	result, err := RunMonteCarlo(context.Background(), trades, MonteCarloConfig{Iterations: 100, Seed: 7, InitialCapital: 100})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.ProbabilityOfProfit)
	assert.Equal(t, 0.0, result.ProbabilityOfRuin)
	assert.Greater(t, result.MeanReturn, 0.0)
}

func TestRunMonteCarloWithoutTrades(t *testing.T) {
	result, err := RunMonteCarlo(context.Background(), nil, MonteCarloConfig{Iterations: 10, InitialCapital: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Iterations)
	assert.Empty(t, result.Distribution)
}

func TestRunMonteCarloCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunMonteCarlo(ctx, []models.Trade{closedTrade(1, 1)}, MonteCarloConfig{Iterations: 10, InitialCapital: 100})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMonteCarloRequiresCapital(t *testing.T) {
	_, err := RunMonteCarlo(context.Background(), nil, MonteCarloConfig{})
	assert.Error(t, err)
}
