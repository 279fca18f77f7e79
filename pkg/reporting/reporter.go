package reporting

import (
	"path/filepath"
)

// ReportingManager writes every enabled output for backtest and portfolio runs
type ReportingManager struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	config  ReportingConfig
}

// NewReportingManager creates a new reporting manager with configuration
func NewReportingManager(config ReportingConfig) *ReportingManager {
	return &ReportingManager{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		config:  config,
	}
}

// SetConsole redirects console output
func (m *ReportingManager) SetConsole(c *DefaultConsoleReporter) {
	m.console = c
}

// ReportBacktests prints and writes each run plus the strategy comparison.
// It returns the paths written.
func (m *ReportingManager) ReportBacktests(reports []BacktestReport) ([]string, error) {
	if m.config.EnableConsole {
		for _, r := range reports {
			m.console.OutputResults(r)
		}
		if len(reports) > 1 {
			m.console.PrintComparison(reports)
		}
	}

	var written []string
	dir := m.config.OutputDirectory
	for _, r := range reports {
		if r.Results == nil {
			continue
		}
		outDir := OutputDir(dir, r.Results.Symbol)
		name := r.Name()

		if m.config.CSVEnabled {
			path := filepath.Join(outDir, FileName(name, "results", "csv"))
			if err := m.csv.WriteResultsCSV(r, path); err != nil {
				return written, err
			}
			written = append(written, path)

			path = filepath.Join(outDir, FileName(name, "trades", "csv"))
			if err := m.csv.WriteTradesCSV(r, path); err != nil {
				return written, err
			}
			written = append(written, path)
		}

		if m.config.ExcelEnabled {
			path := filepath.Join(outDir, FileName(name, "backtest", "xlsx"))
			if err := m.excel.WriteBacktestXLSX(r, path); err != nil {
				return written, err
			}
			written = append(written, path)
		}

		if m.config.JSONEnabled {
			path := filepath.Join(outDir, FileName(name, "summary", "json"))
			if err := WriteJSON(Summarize(r), path); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}

	if m.config.CSVEnabled && len(reports) > 0 {
		path := filepath.Join(dir, "strategy_comparison.csv")
		if err := m.csv.WriteComparisonCSV(reports, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// ReportPortfolio prints and writes a portfolio optimization run
func (m *ReportingManager) ReportPortfolio(report PortfolioReport) ([]string, error) {
	if m.config.EnableConsole {
		m.console.PrintPortfolio(report)
	}

	var written []string
	dir := m.config.OutputDirectory
	if m.config.CSVEnabled {
		path := filepath.Join(dir, "portfolio_weights.csv")
		if err := m.csv.WriteWeightsCSV(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.ExcelEnabled {
		path := filepath.Join(dir, "portfolio.xlsx")
		if err := m.excel.WritePortfolioXLSX(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.JSONEnabled {
		path := filepath.Join(dir, "portfolio.json")
		if err := WriteJSON(summarizePortfolio(report), path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
