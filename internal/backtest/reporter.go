package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a run summary for terminal output
func GenerateConsoleReport(result *Result) string {
	m := result.Metrics
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Bars Processed: %d\n", len(result.EquityCurve)))
	builder.WriteString(fmt.Sprintf("Final Equity: %.2f\n", result.FinalEquity))
	builder.WriteString(fmt.Sprintf("Net Profit: %.2f (%.2f%%)\n", m.NetProfit, m.NetProfitPercent))
	builder.WriteString(fmt.Sprintf("Buy & Hold: %.2f%%\n", m.BuyAndHoldReturn))
	builder.WriteString(fmt.Sprintf("Trades: %d (won %d, lost %d)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", m.WinRate))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", m.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", m.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Sortino Ratio: %.2f\n", m.SortinoRatio))
	builder.WriteString(fmt.Sprintf("Annualized Return: %.2f%%\n", m.AnnualizedReturn*100))
	if result.Liquidated {
		builder.WriteString("Status: LIQUIDATED\n")
	}
	return builder.String()
}

// GenerateMonteCarloReport formats a resampling summary for terminal output
func GenerateMonteCarloReport(mc MonteCarloResult) string {
	var builder strings.Builder
	builder.WriteString("Monte Carlo\n")
	builder.WriteString("-----------\n")
	builder.WriteString(fmt.Sprintf("Iterations: %d\n", mc.Iterations))
	builder.WriteString(fmt.Sprintf("Mean Return: %.2f%%\n", mc.MeanReturn*100))
	builder.WriteString(fmt.Sprintf("VaR 95%%: %.2f%%\n", mc.VaR95*100))
	builder.WriteString(fmt.Sprintf("VaR 99%%: %.2f%%\n", mc.VaR99*100))
	builder.WriteString(fmt.Sprintf("P(profit): %.2f\n", mc.ProbabilityOfProfit))
	builder.WriteString(fmt.Sprintf("P(ruin): %.2f\n", mc.ProbabilityOfRuin))
	return builder.String()
}

// GenerateCSVExport writes key metrics as metric,value rows
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	m := result.Metrics
	csv := "metric,value\n" +
		fmt.Sprintf("run_id,%s\n", result.RunID) +
		fmt.Sprintf("final_equity,%.4f\n", result.FinalEquity) +
		fmt.Sprintf("net_profit,%.4f\n", m.NetProfit) +
		fmt.Sprintf("net_profit_percent,%.4f\n", m.NetProfitPercent) +
		fmt.Sprintf("total_trades,%d\n", m.TotalTrades) +
		fmt.Sprintf("win_rate,%.4f\n", m.WinRate) +
		fmt.Sprintf("profit_factor,%.4f\n", m.ProfitFactor) +
		fmt.Sprintf("max_drawdown,%.4f\n", m.MaxDrawdown) +
		fmt.Sprintf("sharpe_ratio,%.4f\n", m.SharpeRatio) +
		fmt.Sprintf("sortino_ratio,%.4f\n", m.SortinoRatio) +
		fmt.Sprintf("annualized_return,%.4f\n", m.AnnualizedReturn) +
		fmt.Sprintf("buy_and_hold_return,%.4f\n", m.BuyAndHoldReturn) +
		fmt.Sprintf("liquidated,%t\n", result.Liquidated)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}

// WriteEquityCurve writes the equity curve as CSV, or JSON when the path ends in .json
func WriteEquityCurve(curve EquityCurve, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data := curve.ToCSV()
	if strings.EqualFold(filepath.Ext(outputPath), ".json") {
		data = curve.ToJSON()
	}
	return os.WriteFile(outputPath, []byte(data), 0o644)
}
