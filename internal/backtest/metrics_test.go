package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/scriptlab/internal/models"
)

func closedTrade(pnl, pct float64) models.Trade {
	exit := testStart
	price := 100.0
	return models.Trade{
		Side:       models.SideLong,
		EntryPrice: 100,
		Size:       1,
		ExitTime:   &exit,
		ExitPrice:  &price,
		PnL:        &pnl,
		PnLPercent: &pct,
		Status:     models.TradeClosed,
	}
}

func curveOf(values ...float64) EquityCurve {
	b := newCurveBuilder(len(values))
	for i, v := range values {
		b.add(testStart.Add(time.Duration(i)*time.Hour), v)
	}
	return b.curve
}

func TestCalculateMetrics(t *testing.T) {
	bars := risingBars(5)
	trades := []models.Trade{
		closedTrade(300, 3),
		closedTrade(-100, -1),
		closedTrade(200, 2),
		{Status: models.TradeOpen, Side: models.SideLong, Size: 1},
	}
	curve := curveOf(10000, 10300, 10200, 10400, 10400)

	m := CalculateMetrics(trades, curve, bars, 10000)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 66.6667, m.WinRate, 1e-3)
	assert.Equal(t, 400.0, m.NetProfit)
	assert.InDelta(t, 4.0, m.NetProfitPercent, 1e-9)
	assert.Equal(t, 500.0, m.GrossProfit)
	assert.Equal(t, 100.0, m.GrossLoss)
	assert.Equal(t, 5.0, m.ProfitFactor)
	assert.InDelta(t, 100.0/10300*100, m.MaxDrawdown, 1e-9)
	assert.InDelta(t, 4.0/3, m.AvgTrade, 1e-9)
	assert.Equal(t, 3.0, m.BestTrade)
	assert.Equal(t, -1.0, m.WorstTrade)
	assert.InDelta(t, 8.0, m.BuyAndHoldReturn, 1e-9)
	assert.Greater(t, m.SharpeRatio, 0.0)
	assert.Greater(t, m.SortinoRatio, 0.0)
	assert.Greater(t, m.AnnualizedReturn, 0.0)
}

func TestCalculateMetricsZeroTrades(t *testing.T) {
	bars := risingBars(5)
	m := CalculateMetrics(nil, curveOf(1, 1, 1, 1, 1), bars, 1)
	assert.Equal(t, Metrics{BuyAndHoldReturn: m.BuyAndHoldReturn}, m)
	assert.InDelta(t, 8.0, m.BuyAndHoldReturn, 1e-9)
}

func TestProfitFactorWithoutLosses(t *testing.T) {
	assert.Equal(t, 250.0, calculateProfitFactor(250, 0))
	assert.Equal(t, 2.5, calculateProfitFactor(250, 100))
}

func TestBarsPerYear(t *testing.T) {
	hourly := risingBars(3)
	assert.InDelta(t, 8760.0, barsPerYear(hourly), 1e-9)
	assert.Equal(t, 0.0, barsPerYear(hourly[:1]))

	same := []models.Bar{{Time: testStart}, {Time: testStart}}
	assert.Equal(t, 0.0, barsPerYear(same))
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}
	mean, std := meanStd(returns)
	assert.InDelta(t, mean/std*math.Sqrt(252), calculateSharpeRatio(returns, 252), 1e-12)
	assert.Equal(t, 0.0, calculateSharpeRatio([]float64{0.01, 0.01}, 252))
	assert.Equal(t, 0.0, calculateSharpeRatio(nil, 252))
}

func TestAnnualizedReturnGuardsNonFinite(t *testing.T) {
	assert.Equal(t, 0.0, annualizedReturn(-10, 100, 8760, 7))
	assert.Equal(t, 0.0, annualizedReturn(110, 0, 8760, 10))
	assert.InDelta(t, 0.21, annualizedReturn(110, 100, 20, 10), 1e-9)
}

func TestEquityCurveDrawdown(t *testing.T) {
	curve := curveOf(100, 120, 90, 130, 104)
	assert.Equal(t, 0.0, curve[1].Drawdown)
	assert.InDelta(t, 25.0, curve[2].Drawdown, 1e-9)
	assert.InDelta(t, 20.0, curve[4].Drawdown, 1e-9)
	assert.InDelta(t, 25.0, curve.MaxDrawdown(), 1e-9)

	returns := curveOf(0, 10).GetReturns()
	assert.Equal(t, []float64{0}, returns)
}

func TestEquityCurveCSV(t *testing.T) {
	csv := curveOf(100, 50).ToCSV()
	assert.Equal(t,
		"time,value,drawdown\n"+
			"2024-01-01T00:00:00Z,100.000000,0.000000\n"+
			"2024-01-01T01:00:00Z,50.000000,50.000000\n",
		csv)
}
