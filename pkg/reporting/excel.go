package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/quant-backtester/internal/risk"
)

// Sheet names
const (
	SheetResults     = "Results"
	SheetTrades      = "Trades"
	SheetDrawdown    = "Drawdown"
	SheetMetrics     = "Metrics"
	SheetWeights     = "Weights"
	SheetSummary     = "Summary"
	SheetFrontier    = "Frontier"
	SheetCorrelation = "Correlation"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// newWorkbook creates a workbook whose first sheet is named sheets[0]
func newWorkbook(sheets ...string) (*excelize.File, ExcelStyles, error) {
	fx := excelize.NewFile()
	if err := fx.SetSheetName(fx.GetSheetName(0), sheets[0]); err != nil {
		fx.Close()
		return nil, ExcelStyles{}, err
	}
	for _, s := range sheets[1:] {
		if _, err := fx.NewSheet(s); err != nil {
			fx.Close()
			return nil, ExcelStyles{}, err
		}
	}

	styles, err := createExcelStyles(fx)
	if err != nil {
		fx.Close()
		return nil, ExcelStyles{}, err
	}
	return fx, styles, nil
}

func saveWorkbook(fx *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return fx.SaveAs(path)
}

// WriteBacktestXLSX writes Results, Trades, Drawdown and Metrics sheets
func (r *DefaultExcelReporter) WriteBacktestXLSX(report BacktestReport, path string) error {
	fx, styles, err := newWorkbook(SheetResults, SheetTrades, SheetDrawdown, SheetMetrics)
	if err != nil {
		return err
	}
	defer fx.Close()

	for _, write := range []func(*excelize.File, BacktestReport, ExcelStyles) error{
		r.writeResultsSheet, r.writeTradesSheet, r.writeDrawdownSheet, r.writeMetricsSheet,
	} {
		if err := write(fx, report, styles); err != nil {
			return err
		}
	}
	return saveWorkbook(fx, path)
}

// WritePortfolioXLSX writes Weights, Summary, Frontier and Correlation sheets
func (r *DefaultExcelReporter) WritePortfolioXLSX(report PortfolioReport, path string) error {
	fx, styles, err := newWorkbook(SheetWeights, SheetSummary, SheetFrontier, SheetCorrelation)
	if err != nil {
		return err
	}
	defer fx.Close()

	for _, write := range []func(*excelize.File, PortfolioReport, ExcelStyles) error{
		r.writeWeightsSheet, r.writeSummarySheet, r.writeFrontierSheet, r.writeCorrelationSheet,
	} {
		if err := write(fx, report, styles); err != nil {
			return err
		}
	}
	return saveWorkbook(fx, path)
}

// createExcelStyles creates the shared cell styles
func createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	thinBorder := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark slate background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Currency style (right aligned, $ format)
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	// Percentage style, cell values are fractions
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Font:      &excelize.Font{Color: "008000"},
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.DecimalStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    4, // #,##0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.DateStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    22, // m/d/yy h:mm
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder,
	})
	return styles, err
}

func writeHeader(fx *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, style)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	fx.SetColWidth(sheet, "A", last, 16)
	fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// setCell writes a value with a style; NaN is left blank
func setCell(fx *excelize.File, sheet string, col, row int, value interface{}, style int) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		fx.SetCellStyle(sheet, cell, cell, style)
		return
	}
	fx.SetCellValue(sheet, cell, value)
	fx.SetCellStyle(sheet, cell, cell, style)
}

func (r *DefaultExcelReporter) writeResultsSheet(fx *excelize.File, report BacktestReport, s ExcelStyles) error {
	writeHeader(fx, SheetResults, []string{
		"Timestamp", "Price", "Signal", "Position", "Quantity", "Capital", "Portfolio Value", "Return",
	}, s.HeaderStyle)

	for i, row := range report.Results.Rows {
		n := i + 2
		setCell(fx, SheetResults, 1, n, row.Timestamp, s.DateStyle)
		setCell(fx, SheetResults, 2, n, row.Price, s.DecimalStyle)
		setCell(fx, SheetResults, 3, n, row.Signal.String(), s.BaseStyle)
		setCell(fx, SheetResults, 4, n, row.Position.String(), s.BaseStyle)
		setCell(fx, SheetResults, 5, n, row.Quantity, s.DecimalStyle)
		setCell(fx, SheetResults, 6, n, row.Capital, s.CurrencyStyle)
		setCell(fx, SheetResults, 7, n, row.PortfolioValue, s.CurrencyStyle)
		setCell(fx, SheetResults, 8, n, row.Return, percentStyle(row.Return, s))
	}
	return nil
}

func (r *DefaultExcelReporter) writeTradesSheet(fx *excelize.File, report BacktestReport, s ExcelStyles) error {
	writeHeader(fx, SheetTrades, []string{
		"Timestamp", "Side", "Quantity", "Price", "Value", "Commission", "PnL",
	}, s.HeaderStyle)

	for i, t := range report.Results.Trades {
		n := i + 2
		setCell(fx, SheetTrades, 1, n, t.Timestamp, s.DateStyle)
		setCell(fx, SheetTrades, 2, n, string(t.Side), s.BaseStyle)
		setCell(fx, SheetTrades, 3, n, t.Quantity, s.DecimalStyle)
		setCell(fx, SheetTrades, 4, n, t.Price, s.DecimalStyle)
		setCell(fx, SheetTrades, 5, n, t.Value, s.CurrencyStyle)
		setCell(fx, SheetTrades, 6, n, t.Commission, s.CurrencyStyle)
		if t.PnL != nil {
			setCell(fx, SheetTrades, 7, n, *t.PnL, s.CurrencyStyle)
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeDrawdownSheet(fx *excelize.File, report BacktestReport, s ExcelStyles) error {
	writeHeader(fx, SheetDrawdown, []string{"Timestamp", "Equity", "Drawdown"}, s.HeaderStyle)

	drawdown := risk.DrawdownSeries(report.Results.EquityCurve())
	for i, row := range report.Results.Rows {
		n := i + 2
		setCell(fx, SheetDrawdown, 1, n, row.Timestamp, s.DateStyle)
		setCell(fx, SheetDrawdown, 2, n, row.EquityCurve, s.CurrencyStyle)
		setCell(fx, SheetDrawdown, 3, n, drawdown[i]/100, s.RedPercentStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeMetricsSheet(fx *excelize.File, report BacktestReport, s ExcelStyles) error {
	writeHeader(fx, SheetMetrics, []string{"Metric", "Value"}, s.HeaderStyle)

	m := report.MetricsMap()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		setCell(fx, SheetMetrics, 1, i+2, name, s.BaseStyle)
		setCell(fx, SheetMetrics, 2, i+2, m[name], s.DecimalStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeWeightsSheet(fx *excelize.File, report PortfolioReport, s ExcelStyles) error {
	headers := []string{"Asset"}
	for _, res := range report.Optimized {
		headers = append(headers, res.Method)
	}
	if report.RiskParity != nil {
		headers = append(headers, "risk_parity")
	}
	writeHeader(fx, SheetWeights, headers, s.HeaderStyle)

	for i, asset := range report.Assets {
		n := i + 2
		setCell(fx, SheetWeights, 1, n, asset, s.BaseStyle)
		col := 2
		for _, res := range report.Optimized {
			setCell(fx, SheetWeights, col, n, res.Weights[asset], s.PercentStyle)
			col++
		}
		if report.RiskParity != nil {
			setCell(fx, SheetWeights, col, n, report.RiskParity[asset], s.PercentStyle)
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, report PortfolioReport, s ExcelStyles) error {
	writeHeader(fx, SheetSummary, []string{
		"Method", "Expected Return", "Volatility", "Sharpe Ratio", "Converged", "Iterations", "Message",
	}, s.HeaderStyle)

	for i, res := range report.Optimized {
		n := i + 2
		setCell(fx, SheetSummary, 1, n, res.Method, s.BaseStyle)
		setCell(fx, SheetSummary, 2, n, res.ExpectedReturn, percentStyle(res.ExpectedReturn, s))
		setCell(fx, SheetSummary, 3, n, res.Volatility, s.PercentStyle)
		setCell(fx, SheetSummary, 4, n, res.SharpeRatio, s.DecimalStyle)
		setCell(fx, SheetSummary, 5, n, res.Converged, s.BaseStyle)
		setCell(fx, SheetSummary, 6, n, res.Iterations, s.BaseStyle)
		setCell(fx, SheetSummary, 7, n, res.Message, s.BaseStyle)
	}
	return nil
}

func (r *DefaultExcelReporter) writeFrontierSheet(fx *excelize.File, report PortfolioReport, s ExcelStyles) error {
	headers := []string{"Volatility", "Expected Return", "Sharpe Ratio"}
	headers = append(headers, report.Assets...)
	writeHeader(fx, SheetFrontier, headers, s.HeaderStyle)

	for i, p := range report.Frontier {
		n := i + 2
		setCell(fx, SheetFrontier, 1, n, p.Volatility, s.PercentStyle)
		setCell(fx, SheetFrontier, 2, n, p.ExpectedReturn, percentStyle(p.ExpectedReturn, s))
		setCell(fx, SheetFrontier, 3, n, p.SharpeRatio, s.DecimalStyle)
		for j, asset := range report.Assets {
			setCell(fx, SheetFrontier, 4+j, n, p.Weights[asset], s.PercentStyle)
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeCorrelationSheet(fx *excelize.File, report PortfolioReport, s ExcelStyles) error {
	writeHeader(fx, SheetCorrelation, append([]string{""}, report.Assets...), s.HeaderStyle)

	for i, asset := range report.Assets {
		setCell(fx, SheetCorrelation, 1, i+2, asset, s.HeaderStyle)
		if i >= len(report.Correlation) {
			continue
		}
		for j := range report.Assets {
			setCell(fx, SheetCorrelation, j+2, i+2, report.Correlation[i][j], s.DecimalStyle)
		}
	}
	return nil
}

func percentStyle(v float64, s ExcelStyles) int {
	if v < 0 {
		return s.RedPercentStyle
	}
	return s.GreenPercentStyle
}
