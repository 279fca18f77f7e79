package reporting

import (
	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/risk"
)

// ComparisonRow is one strategy's headline numbers, all percentages in percent
type ComparisonRow struct {
	Strategy    string  `json:"strategy"`
	TotalReturn float64 `json:"total_return_pct"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown_pct"`
	WinRate     float64 `json:"win_rate_pct"`
	Trades      int     `json:"trades"`
}

func comparisonRows(reports []BacktestReport) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(reports))
	for _, r := range reports {
		m := r.MetricsMap()
		rows = append(rows, ComparisonRow{
			Strategy:    r.Name(),
			TotalReturn: m[backtest.MetricTotalReturn],
			SharpeRatio: m[risk.MetricSharpeRatio],
			MaxDrawdown: m[risk.MetricMaxDrawdown] * 100,
			WinRate:     m[backtest.MetricWinRate] * 100,
			Trades:      int(m[backtest.MetricNumTrades]),
		})
	}
	return rows
}
