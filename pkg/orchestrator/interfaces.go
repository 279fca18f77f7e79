// Package orchestrator runs the configured strategies across every data
// interval stored for a symbol and picks the best one.
package orchestrator

import (
	"context"

	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/reporting"
)

// IntervalResult represents results for a single interval
type IntervalResult struct {
	Interval string
	DataFile string
	Bars     int
	Reports  []reporting.BacktestReport
	// Best is the index in Reports with the highest objective score
	Best  int
	Score float64
	Error error
}

// BestReport returns the winning strategy report, or nil when the interval failed
func (r *IntervalResult) BestReport() *reporting.BacktestReport {
	if r == nil || r.Error != nil || r.Best < 0 || r.Best >= len(r.Reports) {
		return nil
	}
	return &r.Reports[r.Best]
}

// IntervalAnalysisResult represents results from multi-interval analysis
type IntervalAnalysisResult struct {
	Symbol     string
	Objective  string
	Results    []IntervalResult
	BestResult *IntervalResult
}

// IntervalRunner interface for multi-interval operations
type IntervalRunner interface {
	// FindAvailableIntervals discovers all available intervals for a symbol
	FindAvailableIntervals(dataRoot, symbol string) ([]string, error)

	// RunForInterval backtests every configured strategy on one interval
	RunForInterval(ctx context.Context, cfg *config.Config, dataRoot, interval string) (*IntervalResult, error)
}
