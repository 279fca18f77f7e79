package data

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// DataManager picks a provider by file extension and applies the common
// filters after loading
type DataManager struct {
	csv     *CSVProvider
	parquet *ParquetProvider
	cached  map[string]*CachedProvider
	filter  *DefaultDataFilter
	locator FileLocator
	logger  *logger.Logger
}

// NewDataManager creates a new data manager with default components
func NewDataManager() *DataManager {
	dm := &DataManager{
		csv:     NewCSVProvider(),
		parquet: NewParquetProvider(),
		filter:  NewDefaultDataFilter(),
		locator: NewDefaultFileLocator(),
		logger:  logger.Nop(),
	}
	dm.cached = map[string]*CachedProvider{
		".csv":     NewCachedProvider(dm.csv),
		".parquet": NewCachedProvider(dm.parquet),
	}
	return dm
}

func (dm *DataManager) SetLogger(l *logger.Logger) {
	if l == nil {
		return
	}
	dm.logger = l
	dm.csv.SetLogger(l)
	for _, p := range dm.cached {
		p.SetLogger(l)
	}
}

// providerFor returns the cached provider for path; unknown extensions are
// read as CSV
func (dm *DataManager) providerFor(path string) *CachedProvider {
	if p, ok := dm.cached[strings.ToLower(filepath.Ext(path))]; ok {
		return p
	}
	return dm.cached[".csv"]
}

// Load reads bars, normalizes their order and validates them
func (dm *DataManager) Load(path string) ([]types.OHLCV, error) {
	provider := dm.providerFor(path)
	bars, err := provider.LoadData(path)
	if err != nil {
		return nil, err
	}

	bars = dm.filter.Normalize(bars)
	if err := provider.ValidateData(bars); err != nil {
		return nil, qerr.Wrap(err, qerr.ErrorCategoryData, component, "load").WithContext("path", path)
	}
	return bars, nil
}

// LoadRange is Load followed by FilterByDateRange
func (dm *DataManager) LoadRange(path string, start, end time.Time) ([]types.OHLCV, error) {
	bars, err := dm.Load(path)
	if err != nil {
		return nil, err
	}
	filtered := dm.filter.FilterByDateRange(bars, start, end)
	if len(filtered) == 0 {
		return nil, qerr.NewValidationError(component, "load_range", "no bars inside the requested date range").
			WithContext("path", path)
	}
	if len(filtered) < len(bars) {
		dm.logger.Info("Date range kept %d of %d bars from %s", len(filtered), len(bars), filepath.Base(path))
	}
	return filtered, nil
}

// Save writes bars as Parquet or CSV depending on the extension
func (dm *DataManager) Save(path string, bars []types.OHLCV) error {
	var w DataWriter = dm.csv
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		w = dm.parquet
	}
	defer dm.providerFor(path).Invalidate(path)
	return w.SaveData(path, bars)
}

// FindDataFile locates a bar file for symbol and interval
func (dm *DataManager) FindDataFile(dataRoot, symbol, interval string) string {
	return dm.locator.FindDataFile(dataRoot, symbol, interval)
}

// Filter returns the data filter
func (dm *DataManager) Filter() *DefaultDataFilter {
	return dm.filter
}

// ParseTrailingPeriod parses period strings like "7d", "30d", "180d"
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(s, "days") {
		s = strings.TrimSuffix(s, "days") + "d"
	}
	if strings.HasSuffix(s, "d") {
		nStr := strings.TrimSuffix(s, "d")
		if nStr == "" {
			return 0, false
		}
		n, err := strconv.Atoi(nStr)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	// allow raw durations too (e.g., 168h)
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
