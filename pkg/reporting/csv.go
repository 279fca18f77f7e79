package reporting

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/risk"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

const timestampLayout = "2006-01-02 15:04:05"

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// writeCSV creates path's directory and writes header plus rows
func writeCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteResultsCSV writes the per-bar rows with a drawdown column
func (r *DefaultCSVReporter) WriteResultsCSV(report BacktestReport, path string) error {
	res := report.Results
	drawdown := risk.DrawdownSeries(res.EquityCurve())

	rows := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = []string{
			row.Timestamp.Format(timestampLayout),
			formatFloat(row.Price),
			strconv.Itoa(int(row.Signal)),
			strconv.Itoa(int(row.Position)),
			formatFloat(row.Quantity),
			formatFloat(row.Capital),
			formatFloat(row.PortfolioValue),
			formatFloat(row.EquityCurve),
			formatFloat(row.Return),
			formatFloat(drawdown[i]),
		}
	}
	return writeCSV(path, []string{
		"timestamp", "price", "signal", "position", "quantity",
		"capital", "portfolio_value", "equity_curve", "returns", "drawdown_pct",
	}, rows)
}

// WriteTradesCSV writes the trade log; pnl is empty for opening fills
func (r *DefaultCSVReporter) WriteTradesCSV(report BacktestReport, path string) error {
	trades := report.Results.Trades
	rows := make([][]string, len(trades))
	for i, t := range trades {
		pnl := ""
		if t.PnL != nil {
			pnl = formatFloat(*t.PnL)
		}
		rows[i] = []string{
			t.Timestamp.Format(timestampLayout),
			string(t.Side),
			formatFloat(t.Quantity),
			formatFloat(t.Price),
			formatFloat(t.Value),
			formatFloat(t.Commission),
			pnl,
		}
	}
	return writeCSV(path, []string{"timestamp", "side", "quantity", "price", "value", "commission", "pnl"}, rows)
}

// WriteComparisonCSV writes one row per strategy
func (r *DefaultCSVReporter) WriteComparisonCSV(reports []BacktestReport, path string) error {
	var rows [][]string
	for _, c := range comparisonRows(reports) {
		rows = append(rows, []string{
			c.Strategy,
			strconv.FormatFloat(c.TotalReturn, 'f', 4, 64),
			strconv.FormatFloat(c.SharpeRatio, 'f', 4, 64),
			strconv.FormatFloat(c.MaxDrawdown, 'f', 4, 64),
			strconv.FormatFloat(c.WinRate, 'f', 4, 64),
			strconv.Itoa(c.Trades),
		})
	}
	return writeCSV(path, []string{"Strategy", "Total Return (%)", "Sharpe Ratio", "Max Drawdown (%)", "Win Rate (%)", "Trades"}, rows)
}

// WriteWeightsCSV writes one row per asset and one column per method
func (r *DefaultCSVReporter) WriteWeightsCSV(report PortfolioReport, path string) error {
	header := []string{"asset"}
	for _, res := range report.Optimized {
		header = append(header, res.Method)
	}
	if report.RiskParity != nil {
		header = append(header, "risk_parity")
	}

	rows := make([][]string, len(report.Assets))
	for i, asset := range report.Assets {
		row := []string{asset}
		for _, res := range report.Optimized {
			row = append(row, formatFloat(res.Weights[asset]))
		}
		if report.RiskParity != nil {
			row = append(row, formatFloat(report.RiskParity[asset]))
		}
		rows[i] = row
	}
	return writeCSV(path, header, rows)
}

// WriteIndicatorsCSV writes the bars with the standard indicator bundle,
// indicator columns in name order. Warm-up values are left blank.
func (r *DefaultCSVReporter) WriteIndicatorsCSV(bars []types.OHLCV, path string) error {
	cols := indicators.Calculate(bars).Columns()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	header := append([]string{"timestamp", "open", "high", "low", "close", "volume"}, names...)
	rows := make([][]string, len(bars))
	for i, bar := range bars {
		row := make([]string, 0, len(header))
		row = append(row,
			bar.Timestamp.Format(timestampLayout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
		)
		for _, name := range names {
			row = append(row, formatFloat(cols[name][i]))
		}
		rows[i] = row
	}
	return writeCSV(path, header, rows)
}
