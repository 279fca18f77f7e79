// Package reporting renders backtest and portfolio results to the console,
// CSV, Excel and JSON
package reporting

import (
	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/portfolio"
)

// BacktestReport pairs a run with its metrics. Metrics is nil when the run
// produced no returns.
type BacktestReport struct {
	Results *backtest.Results
	Metrics *backtest.PerformanceMetrics
}

// Name identifies the report in tables and file names
func (r BacktestReport) Name() string {
	if r.Results == nil {
		return "unknown"
	}
	return r.Results.Strategy
}

// MetricsMap returns the flat metrics, all zero when Metrics is nil
func (r BacktestReport) MetricsMap() map[string]float64 {
	if r.Metrics == nil {
		return (&backtest.PerformanceMetrics{}).Map()
	}
	return r.Metrics.Map()
}

// PortfolioReport collects the outputs of one portfolio optimization run
type PortfolioReport struct {
	Assets      []string
	Optimized   []*portfolio.OptimizationResult
	RiskParity  portfolio.Weights
	Frontier    []portfolio.FrontierPoint
	Correlation [][]float64
}

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResults(report BacktestReport)
	PrintComparison(reports []BacktestReport)
	PrintPortfolio(report PortfolioReport)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteResultsCSV(report BacktestReport, path string) error
	WriteTradesCSV(report BacktestReport, path string) error
	WriteComparisonCSV(reports []BacktestReport, path string) error
	WriteBacktestXLSX(report BacktestReport, path string) error
	WritePortfolioXLSX(report PortfolioReport, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle       int
	CurrencyStyle     int
	PercentStyle      int
	DecimalStyle      int
	BaseStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	DateStyle         int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	OutputDirectory string
	ExcelEnabled    bool
	CSVEnabled      bool
	JSONEnabled     bool
}
