package reporting

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/risk"
)

const reportWidth = 60

// GenerateReport renders the plain-text performance report. Ratios shown as
// percentages are scaled by 100; total return is already in percent.
func GenerateReport(report BacktestReport) string {
	m := report.MetricsMap()
	var b strings.Builder

	b.WriteString("\n" + strings.Repeat("=", reportWidth) + "\n")
	b.WriteString("BACKTEST PERFORMANCE REPORT\n")
	if report.Results != nil {
		fmt.Fprintf(&b, "%s on %s (%s)\n", report.Results.Strategy, report.Results.Symbol, report.Results.PriceColumn)
	}
	b.WriteString(strings.Repeat("=", reportWidth) + "\n\n")

	fmt.Fprintf(&b, "Total Return:        %.2f%%\n", m[backtest.MetricTotalReturn])
	fmt.Fprintf(&b, "Annual Return:       %.2f%%\n", m[risk.MetricAnnualReturn]*100)
	fmt.Fprintf(&b, "Volatility:          %.2f%%\n", m[risk.MetricVolatility]*100)
	fmt.Fprintf(&b, "Sharpe Ratio:        %.2f\n", m[risk.MetricSharpeRatio])
	fmt.Fprintf(&b, "Sortino Ratio:       %.2f\n", m[risk.MetricSortinoRatio])
	fmt.Fprintf(&b, "Max Drawdown:        %.2f%%\n", m[risk.MetricMaxDrawdown]*100)
	fmt.Fprintf(&b, "Calmar Ratio:        %.2f\n", m[risk.MetricCalmarRatio])
	fmt.Fprintf(&b, "VaR (95%%):           %.2f%%\n", m[risk.MetricVaR95]*100)
	fmt.Fprintf(&b, "CVaR (95%%):          %.2f%%\n", m[risk.MetricCVaR95]*100)
	fmt.Fprintf(&b, "Number of Trades:    %.0f\n", m[backtest.MetricNumTrades])
	fmt.Fprintf(&b, "Win Rate:            %.2f%%\n", m[backtest.MetricWinRate]*100)
	if report.Results != nil && report.Results.SkippedEntries > 0 {
		fmt.Fprintf(&b, "Skipped Entries:     %d\n", report.Results.SkippedEntries)
	}

	b.WriteString("\n" + strings.Repeat("=", reportWidth) + "\n")
	return b.String()
}
