package models

// OptimizationResult records the outcome of one parameter combination
type OptimizationResult struct {
	Params           map[string]float64 `json:"params"`
	NetProfit        float64            `json:"net_profit"`
	NetProfitPercent float64            `json:"net_profit_percent"`
	Sharpe           *float64           `json:"sharpe,omitempty"`
	MaxDrawdown      *float64           `json:"max_drawdown,omitempty"`
	TradeCount       int                `json:"trades"`
}
