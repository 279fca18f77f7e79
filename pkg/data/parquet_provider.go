package data

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Compile-time interface checks.
var _ DataProvider = (*ParquetProvider)(nil)
var _ DataWriter = (*ParquetProvider)(nil)

// BarRecord is the Parquet schema for bar data.
type BarRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetProvider reads and writes one bar series per Parquet file
type ParquetProvider struct{}

func NewParquetProvider() *ParquetProvider {
	return &ParquetProvider{}
}

func (p *ParquetProvider) GetName() string {
	return "Parquet Provider"
}

// LoadData reads every record and returns bars sorted by timestamp
func (p *ParquetProvider) LoadData(source string) ([]types.OHLCV, error) {
	records, err := parquet.ReadFile[BarRecord](source)
	if err != nil {
		return nil, qerr.NewIOError(component, "load_parquet", err).WithContext("path", source)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })

	bars := make([]types.OHLCV, len(records))
	for i, r := range records {
		bars[i] = types.OHLCV{
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return bars, nil
}

func (p *ParquetProvider) ValidateData(data []types.OHLCV) error {
	return validateBars(data)
}

// SaveData overwrites path with data at millisecond timestamp precision
func (p *ParquetProvider) SaveData(path string, data []types.OHLCV) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qerr.NewIOError(component, "save_parquet", err)
	}

	records := make([]BarRecord, len(data))
	for i, c := range data {
		records[i] = BarRecord{
			Timestamp: c.Timestamp.UnixMilli(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return qerr.NewIOError(component, "save_parquet", err).WithContext("path", path)
	}
	return nil
}
