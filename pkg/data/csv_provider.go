package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

const component = "data"

// fallback layouts tried after the format's own DateFormat
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CSVProvider implements DataProvider for CSV files
type CSVProvider struct {
	format CSVColumnMapping
	logger *logger.Logger
}

// NewCSVProvider creates a new CSV data provider with default format
func NewCSVProvider() *CSVProvider {
	return NewCSVProviderWithFormat(DefaultCSVFormat)
}

// NewCSVProviderWithFormat creates a new CSV data provider with custom format
func NewCSVProviderWithFormat(format CSVColumnMapping) *CSVProvider {
	return &CSVProvider{
		format: format,
		logger: logger.Nop(),
	}
}

func (p *CSVProvider) SetLogger(l *logger.Logger) {
	if l != nil {
		p.logger = l
	}
}

// GetName returns the name of the data provider
func (p *CSVProvider) GetName() string {
	return "CSV Provider"
}

// LoadData loads historical data from a CSV file. The first row is a header.
// Rows that fail to parse or carry inconsistent prices are skipped.
func (p *CSVProvider) LoadData(source string) ([]types.OHLCV, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, qerr.NewIOError(component, "load_csv", err).WithContext("path", source)
	}
	defer file.Close()

	return p.read(file, filepath.Base(source))
}

func (p *CSVProvider) read(r io.Reader, name string) ([]types.OHLCV, error) {
	format := p.format
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, qerr.NewDataError(component, "load_csv", fmt.Errorf("%s is empty", name))
		}
		return nil, qerr.NewDataError(component, "load_csv", err)
	}

	var data []types.OHLCV
	skipped := 0

	lineNum := 1 // Start from 1 since we already read header
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, qerr.NewDataError(component, "load_csv", fmt.Errorf("error reading CSV at line %d: %w", lineNum, err))
		}
		lineNum++

		candle, reason := parseRecord(record, format)
		if reason != "" {
			p.logger.Debug("%s line %d skipped: %s", name, lineNum, reason)
			skipped++
			continue
		}
		data = append(data, candle)
	}

	if skipped > 0 {
		p.logger.Warning("%s: skipped %d of %d rows", name, skipped, lineNum-1)
	}
	if len(data) == 0 {
		return nil, qerr.NewDataError(component, "load_csv", fmt.Errorf("%s contains no valid rows", name))
	}
	return data, nil
}

// parseRecord returns a non-empty reason when the row must be skipped
func parseRecord(record []string, format CSVColumnMapping) (types.OHLCV, string) {
	if len(record) < format.MinColumns {
		return types.OHLCV{}, fmt.Sprintf("insufficient columns (expected %d, got %d)", format.MinColumns, len(record))
	}

	timestamp, err := parseTimestamp(record[format.TimestampCol], format.DateFormat)
	if err != nil {
		return types.OHLCV{}, fmt.Sprintf("invalid timestamp %q", record[format.TimestampCol])
	}

	fields := []struct {
		name string
		col  int
	}{
		{"open", format.OpenCol},
		{"high", format.HighCol},
		{"low", format.LowCol},
		{"close", format.CloseCol},
		{"volume", format.VolumeCol},
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[f.col]), 64)
		if err != nil {
			return types.OHLCV{}, fmt.Sprintf("invalid %s %q", f.name, record[f.col])
		}
		values[i] = v
	}

	candle := types.OHLCV{
		Timestamp: timestamp,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}
	if err := validateCandle(candle); err != nil {
		return types.OHLCV{}, err.Error()
	}
	return candle, ""
}

func parseTimestamp(raw, layout string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if layout != "" {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	for _, l := range timestampLayouts {
		if ts, err := time.Parse(l, raw); err == nil {
			return ts, nil
		}
	}

	// epoch seconds or milliseconds
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func validateCandle(c types.OHLCV) error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if c.High < c.Low {
		return fmt.Errorf("high (%.4f) cannot be less than low (%.4f)", c.High, c.Low)
	}
	if c.High < c.Open || c.High < c.Close {
		return fmt.Errorf("high (%.4f) must be >= open (%.4f) and close (%.4f)", c.High, c.Open, c.Close)
	}
	if c.Low > c.Open || c.Low > c.Close {
		return fmt.Errorf("low (%.4f) must be <= open (%.4f) and close (%.4f)", c.Low, c.Open, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("volume cannot be negative")
	}
	return nil
}

// ValidateData validates the integrity of loaded data
func (p *CSVProvider) ValidateData(data []types.OHLCV) error {
	return validateBars(data)
}

func validateBars(data []types.OHLCV) error {
	if len(data) == 0 {
		return qerr.NewValidationError(component, "validate", "no data provided")
	}

	for i, candle := range data {
		if err := validateCandle(candle); err != nil {
			return qerr.Wrap(err, qerr.ErrorCategoryValidation, component, "validate").
				WithMessage("invalid price data at index %d", i)
		}
		if i > 0 && candle.Timestamp.Before(data[i-1].Timestamp) {
			return qerr.NewValidationError(component, "validate",
				fmt.Sprintf("invalid timestamp sequence at index %d: timestamps must be in chronological order", i))
		}
	}

	return nil
}

// SaveData writes bars in the provider's default layout with a header row
func (p *CSVProvider) SaveData(path string, data []types.OHLCV) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return qerr.NewIOError(component, "save_csv", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return qerr.NewIOError(component, "save_csv", err).WithContext("path", path)
	}
	defer file.Close()

	layout := p.format.DateFormat
	if layout == "" {
		layout = DefaultCSVFormat.DateFormat
	}

	w := csv.NewWriter(file)
	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return qerr.NewIOError(component, "save_csv", err)
	}
	for _, c := range data {
		row := []string{
			c.Timestamp.UTC().Format(layout),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return qerr.NewIOError(component, "save_csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return qerr.NewIOError(component, "save_csv", err)
	}
	return nil
}
