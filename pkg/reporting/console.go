package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/portfolio"
	"github.com/ducminhle1904/quant-backtester/internal/risk"
)

// DefaultConsoleReporter renders tables to a writer, stdout by default
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo writes to w instead of stdout
func NewConsoleReporterTo(w io.Writer) *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: w}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// OutputResults prints one run's summary and metrics
func (r *DefaultConsoleReporter) OutputResults(report BacktestReport) {
	m := report.MetricsMap()
	t := r.newTable(fmt.Sprintf("BACKTEST RESULTS: %s", report.Name()))

	if res := report.Results; res != nil {
		t.AppendRows([]table.Row{
			{"Symbol", res.Symbol},
			{"Price Column", string(res.PriceColumn)},
			{"Bars", len(res.Rows)},
			{"Initial Capital", fmt.Sprintf("$%.2f", res.InitialCapital)},
			{"Final Value", fmt.Sprintf("$%.2f", res.FinalValue())},
			{"Skipped Entries", res.SkippedEntries},
		})
		t.AppendSeparator()
	}

	t.AppendRows([]table.Row{
		{"Total Return", fmt.Sprintf("%.2f%%", m[backtest.MetricTotalReturn])},
		{"Annual Return", fmt.Sprintf("%.2f%%", m[risk.MetricAnnualReturn]*100)},
		{"Volatility", fmt.Sprintf("%.2f%%", m[risk.MetricVolatility]*100)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", m[risk.MetricSharpeRatio])},
		{"Sortino Ratio", fmt.Sprintf("%.2f", m[risk.MetricSortinoRatio])},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", m[risk.MetricMaxDrawdown]*100)},
		{"Calmar Ratio", fmt.Sprintf("%.2f", m[risk.MetricCalmarRatio])},
		{"VaR (95%)", fmt.Sprintf("%.2f%%", m[risk.MetricVaR95]*100)},
		{"CVaR (95%)", fmt.Sprintf("%.2f%%", m[risk.MetricCVaR95]*100)},
		{"Trades", fmt.Sprintf("%.0f", m[backtest.MetricNumTrades])},
		{"Win Rate", fmt.Sprintf("%.1f%%", m[backtest.MetricWinRate]*100)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 18, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(r.out)
}

// PrintComparison prints one row per strategy
func (r *DefaultConsoleReporter) PrintComparison(reports []BacktestReport) {
	t := r.newTable("STRATEGY COMPARISON")
	t.AppendHeader(table.Row{"Strategy", "Total Return (%)", "Sharpe Ratio", "Max Drawdown (%)", "Win Rate (%)", "Trades"})
	for _, row := range comparisonRows(reports) {
		t.AppendRow(table.Row{row.Strategy,
			fmt.Sprintf("%.2f", row.TotalReturn),
			fmt.Sprintf("%.2f", row.SharpeRatio),
			fmt.Sprintf("%.2f", row.MaxDrawdown),
			fmt.Sprintf("%.2f", row.WinRate),
			row.Trades,
		})
	}
	t.Render()
	fmt.Fprintln(r.out)
}

// PrintPortfolio prints allocations, per-method statistics and correlations
func (r *DefaultConsoleReporter) PrintPortfolio(report PortfolioReport) {
	weights := r.newTable("PORTFOLIO WEIGHTS")
	header := table.Row{"Asset"}
	for _, res := range report.Optimized {
		header = append(header, res.Method)
	}
	if report.RiskParity != nil {
		header = append(header, portfolio.MethodRiskParity)
	}
	weights.AppendHeader(header)

	for _, asset := range report.Assets {
		row := table.Row{asset}
		for _, res := range report.Optimized {
			row = append(row, fmt.Sprintf("%.2f%%", res.Weights[asset]*100))
		}
		if report.RiskParity != nil {
			row = append(row, fmt.Sprintf("%.2f%%", report.RiskParity[asset]*100))
		}
		weights.AppendRow(row)
	}
	weights.Render()
	fmt.Fprintln(r.out)

	if len(report.Optimized) > 0 {
		summary := r.newTable("OPTIMIZATION SUMMARY")
		summary.AppendHeader(table.Row{"Method", "Expected Return", "Volatility", "Sharpe Ratio", "Converged", "Iterations"})
		for _, res := range report.Optimized {
			summary.AppendRow(table.Row{
				res.Method,
				fmt.Sprintf("%.2f%%", res.ExpectedReturn*100),
				fmt.Sprintf("%.2f%%", res.Volatility*100),
				fmt.Sprintf("%.2f", res.SharpeRatio),
				res.Converged,
				res.Iterations,
			})
		}
		summary.Render()
		fmt.Fprintln(r.out)
	}

	if len(report.Correlation) > 0 {
		corr := r.newTable("CORRELATION MATRIX")
		header := table.Row{""}
		for _, a := range report.Assets {
			header = append(header, a)
		}
		corr.AppendHeader(header)
		for i, a := range report.Assets {
			row := table.Row{a}
			for j := range report.Assets {
				row = append(row, fmt.Sprintf("%.3f", report.Correlation[i][j]))
			}
			corr.AppendRow(row)
		}
		corr.Render()
		fmt.Fprintln(r.out)
	}
}

// OutputConsole prints a report with the default reporter
func OutputConsole(report BacktestReport) {
	NewDefaultConsoleReporter().OutputResults(report)
}
