package reporting

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
)

// BacktestSummary is the JSON form of a backtest report
type BacktestSummary struct {
	Strategy       string                       `json:"strategy"`
	Symbol         string                       `json:"symbol"`
	PriceColumn    string                       `json:"price_column"`
	Bars           int                          `json:"bars"`
	Start          time.Time                    `json:"start"`
	End            time.Time                    `json:"end"`
	InitialCapital float64                      `json:"initial_capital"`
	FinalValue     float64                      `json:"final_value"`
	SkippedEntries int                          `json:"skipped_entries"`
	Metrics        *backtest.PerformanceMetrics `json:"metrics,omitempty"`
	Trades         []backtest.Trade             `json:"trades"`
}

// Summarize builds the JSON summary of a report
func Summarize(report BacktestReport) BacktestSummary {
	res := report.Results
	s := BacktestSummary{
		Strategy:       res.Strategy,
		Symbol:         res.Symbol,
		PriceColumn:    string(res.PriceColumn),
		Bars:           len(res.Rows),
		InitialCapital: res.InitialCapital,
		FinalValue:     res.FinalValue(),
		SkippedEntries: res.SkippedEntries,
		Metrics:        report.Metrics,
		Trades:         res.Trades,
	}
	if len(res.Rows) > 0 {
		s.Start = res.Rows[0].Timestamp
		s.End = res.Rows[len(res.Rows)-1].Timestamp
	}
	if s.Trades == nil {
		s.Trades = []backtest.Trade{}
	}
	return s
}

// PortfolioSummary is the JSON form of a portfolio report. Correlation
// entries that are NaN are written as null.
type PortfolioSummary struct {
	Assets      []string     `json:"assets"`
	Optimized   interface{}  `json:"optimized"`
	RiskParity  interface{}  `json:"risk_parity,omitempty"`
	Correlation [][]*float64 `json:"correlation,omitempty"`
	Frontier    int          `json:"frontier_points"`
}

func summarizePortfolio(report PortfolioReport) PortfolioSummary {
	s := PortfolioSummary{
		Assets:    report.Assets,
		Optimized: report.Optimized,
		Frontier:  len(report.Frontier),
	}
	if report.RiskParity != nil {
		s.RiskParity = report.RiskParity
	}
	for _, row := range report.Correlation {
		out := make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				v := v
				out[j] = &v
			}
		}
		s.Correlation = append(s.Correlation, out)
	}
	return s
}

// WriteJSON marshals v with indentation, creating the directory if needed
func WriteJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
