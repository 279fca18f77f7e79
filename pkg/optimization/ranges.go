package optimization

import (
	"sort"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
)

// defaultRanges are the search ranges per strategy
var defaultRanges = map[string]backtest.ParameterGrid{
	"mean_reversion": {
		"lookback_period": {10, 20, 30, 50},
		"entry_threshold": {1.5, 2, 2.5},
		"exit_threshold":  {0.25, 0.5, 1},
	},
	"momentum": {
		"macd_fast":      {8, 12},
		"macd_slow":      {21, 26},
		"rsi_period":     {10, 14, 21},
		"rsi_oversold":   {25, 30},
		"rsi_overbought": {70, 75},
	},
	"pairs_trading": {
		"lookback_period": {30, 60, 90},
		"entry_threshold": {1.5, 2, 2.5},
		"exit_threshold":  {0.25, 0.5},
	},
	"hedge": {
		"lookback_period": {20, 30, 45},
		"regime_window":   {40, 60, 90},
		"low_quantile":    {0.2, 0.3},
		"high_quantile":   {0.7, 0.8},
	},
}

// DefaultRanges returns a copy of the search ranges for a strategy name or alias
func DefaultRanges(strategyName string) (backtest.ParameterGrid, bool) {
	grid, ok := defaultRanges[strategy.CanonicalName(strategyName)]
	if !ok {
		return nil, false
	}
	out := make(backtest.ParameterGrid, len(grid))
	for k, v := range grid {
		out[k] = append([]float64(nil), v...)
	}
	return out, true
}

// rangeKeys returns the grid's parameter names in gene order
func rangeKeys(g backtest.ParameterGrid) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
