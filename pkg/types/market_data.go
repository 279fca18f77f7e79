package types

import (
	"fmt"
	"strings"
	"time"
)

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// PriceColumn selects which OHLCV field a backtest trades against.
type PriceColumn string

const (
	ColumnOpen   PriceColumn = "open"
	ColumnHigh   PriceColumn = "high"
	ColumnLow    PriceColumn = "low"
	ColumnClose  PriceColumn = "close"
	ColumnVolume PriceColumn = "volume"
)

// ParsePriceColumn normalizes a column name, returning false for unknown names.
func ParsePriceColumn(name string) (PriceColumn, bool) {
	col := PriceColumn(strings.ToLower(strings.TrimSpace(name)))
	switch col {
	case ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume:
		return col, true
	}
	return col, false
}

// Value returns the field selected by col.
func (c OHLCV) Value(col PriceColumn) (float64, error) {
	switch col {
	case ColumnOpen:
		return c.Open, nil
	case ColumnHigh:
		return c.High, nil
	case ColumnLow:
		return c.Low, nil
	case ColumnClose:
		return c.Close, nil
	case ColumnVolume:
		return c.Volume, nil
	default:
		return 0, fmt.Errorf("unknown price column %q", string(col))
	}
}

// Closes extracts the close series.
func Closes(data []OHLCV) []float64 {
	out := make([]float64, len(data))
	for i, c := range data {
		out[i] = c.Close
	}
	return out
}
