package backtest

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/yourusername/scriptlab/internal/models"
)

const year = 365 * 24 * time.Hour

// Metrics represents backtest performance metrics. Percent fields are in
// percent units; AnnualizedReturn is a fraction.
type Metrics struct {
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WinRate          float64 `json:"win_rate"`
	NetProfit        float64 `json:"net_profit"`
	NetProfitPercent float64 `json:"net_profit_percent"`
	GrossProfit      float64 `json:"gross_profit"`
	GrossLoss        float64 `json:"gross_loss"`
	ProfitFactor     float64 `json:"profit_factor"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	AnnualizedReturn float64 `json:"annualized_return"`
	ValueAtRisk95    float64 `json:"var_95"`
	BuyAndHoldReturn float64 `json:"buy_and_hold_return"`
	AvgTrade         float64 `json:"avg_trade"`
	BestTrade        float64 `json:"best_trade"`
	WorstTrade       float64 `json:"worst_trade"`
	Liquidated       bool    `json:"liquidated"`
}

// CalculateMetrics derives metrics from closed trades and the equity curve.
// With no trades every field is zero except BuyAndHoldReturn.
func CalculateMetrics(trades []models.Trade, curve EquityCurve, bars []models.Bar, initialCapital float64) Metrics {
	metrics := Metrics{
		BuyAndHoldReturn: buyAndHold(bars),
	}

	closed := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		return metrics
	}

	metrics.TotalTrades = len(closed)
	metrics.BestTrade = math.Inf(-1)
	metrics.WorstTrade = math.Inf(1)
	pctSum := 0.0
	for _, t := range closed {
		pnl := t.RealizedPnL()
		if pnl > 0 {
			metrics.WinningTrades++
			metrics.GrossProfit += pnl
		} else {
			metrics.LosingTrades++
			metrics.GrossLoss += math.Abs(pnl)
		}
		pct := t.ReturnPercent()
		pctSum += pct
		metrics.BestTrade = math.Max(metrics.BestTrade, pct)
		metrics.WorstTrade = math.Min(metrics.WorstTrade, pct)
	}

	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	metrics.NetProfit = metrics.GrossProfit - metrics.GrossLoss
	if initialCapital > 0 {
		metrics.NetProfitPercent = metrics.NetProfit / initialCapital * 100
	}
	metrics.ProfitFactor = calculateProfitFactor(metrics.GrossProfit, metrics.GrossLoss)
	metrics.AvgTrade = pctSum / float64(metrics.TotalTrades)

	metrics.MaxDrawdown = curve.MaxDrawdown()
	bpy := barsPerYear(bars)
	returns := curve.GetReturns()
	metrics.SharpeRatio = calculateSharpeRatio(returns, bpy)
	metrics.SortinoRatio = calculateSortinoRatio(returns, curve.GetDownsideDeviation(), bpy)
	metrics.AnnualizedReturn = annualizedReturn(initialCapital+metrics.NetProfit, initialCapital, bpy, len(curve))
	metrics.ValueAtRisk95 = calculateVaR(returns, 0.95)

	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// calculateProfitFactor reports gross profit itself when there are no losses
func calculateProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		return grossProfit
	}
	return grossProfit / grossLoss
}

func buyAndHold(bars []models.Bar) float64 {
	if len(bars) == 0 || bars[0].Open == 0 {
		return 0
	}
	first := bars[0].Open
	return (bars[len(bars)-1].Close - first) / first * 100
}

// barsPerYear infers the bar frequency from the average spacing between the
// first and last bar. Degenerate spans yield 0.
func barsPerYear(bars []models.Bar) float64 {
	if len(bars) < 2 {
		return 0
	}
	span := bars[len(bars)-1].Time.Sub(bars[0].Time)
	if span <= 0 {
		return 0
	}
	avg := float64(span) / float64(len(bars)-1)
	bpy := float64(year) / avg
	if math.IsNaN(bpy) || math.IsInf(bpy, 0) {
		return 0
	}
	return bpy
}

func calculateSharpeRatio(returns []float64, bpy float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return finiteOrZero(mean / std * math.Sqrt(bpy))
}

func calculateSortinoRatio(returns []float64, downside, bpy float64) float64 {
	if len(returns) == 0 || downside == 0 {
		return 0
	}
	mean, _ := meanStd(returns)
	return finiteOrZero(mean / downside * math.Sqrt(bpy))
}

func annualizedReturn(final, initial, bpy float64, totalBars int) float64 {
	if initial <= 0 || totalBars == 0 {
		return 0
	}
	return finiteOrZero(math.Pow(final/initial, bpy/float64(totalBars)) - 1)
}

func calculateVaR(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return percentile(returns, 1.0-level)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
