package backtest

import "github.com/ducminhle1904/quant-backtester/internal/risk"

// Metric names added on top of the risk statistics
const (
	MetricTotalReturn = "total_return"
	MetricNumTrades   = "num_trades"
	MetricWinRate     = "win_rate"
)

// PerformanceMetrics summarizes a run
type PerformanceMetrics struct {
	risk.Metrics
	// TotalReturn is in percent
	TotalReturn float64 `json:"total_return"`
	NumTrades   int     `json:"num_trades"`
	WinRate     float64 `json:"win_rate"`
}

// Map flattens all metrics into name → value
func (m *PerformanceMetrics) Map() map[string]float64 {
	out := m.Metrics.Map()
	out[MetricTotalReturn] = m.TotalReturn
	out[MetricNumTrades] = float64(m.NumTrades)
	out[MetricWinRate] = m.WinRate
	return out
}

// PerformanceMetrics computes risk statistics over the run's returns. It
// returns nil when the run produced no returns.
func (b *Backtester) PerformanceMetrics(results *Results) *PerformanceMetrics {
	if results == nil {
		return nil
	}
	returns := results.Returns()
	if len(returns) == 0 {
		return nil
	}

	m := &PerformanceMetrics{
		Metrics:   risk.AllMetrics(returns, b.config.RiskFreeRate, b.config.PeriodsPerYear),
		NumTrades: len(results.Trades),
		WinRate:   WinRate(results.Trades),
	}
	if results.InitialCapital != 0 {
		m.TotalReturn = (results.FinalValue()/results.InitialCapital - 1) * 100
	}
	return m
}

// WinRate is the share of exits with positive PnL among exits with nonzero
// PnL. Fewer than two trades yield 0.
func WinRate(trades []Trade) float64 {
	if len(trades) < 2 {
		return 0
	}

	var wins, withPnL int
	for _, t := range trades {
		if t.PnL == nil || *t.PnL == 0 {
			continue
		}
		withPnL++
		if *t.PnL > 0 {
			wins++
		}
	}
	if withPnL == 0 {
		return 0
	}
	return float64(wins) / float64(withPnL)
}
