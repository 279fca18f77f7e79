package data

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultFileLocator implements FileLocator for standard file system operations
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// ConvertIntervalToMinutes converts interval strings like "5m", "1h", "4h" to minute numbers
func (f *DefaultFileLocator) ConvertIntervalToMinutes(interval string) string {
	// If it's already just a number, return as-is
	if _, err := strconv.Atoi(interval); err == nil {
		return interval
	}

	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return interval
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil {
		return interval
	}

	switch interval[len(interval)-1:] {
	case "m":
		return strconv.Itoa(num)
	case "h":
		return strconv.Itoa(num * 60)
	case "d":
		return strconv.Itoa(num * 24 * 60)
	case "w":
		return strconv.Itoa(num * 7 * 24 * 60)
	default:
		return interval
	}
}

// FindDataFile checks, in order and for both .parquet and .csv:
//
//	{root}/{SYMBOL}/{interval}.ext
//	{root}/{SYMBOL}/{minutes}/candles.ext
//	{root}/{SYMBOL}.ext
//
// It returns "" when nothing exists.
func (f *DefaultFileLocator) FindDataFile(dataRoot, symbol, interval string) string {
	symbol = strings.ToUpper(symbol)

	var candidates []string
	for _, ext := range []string{".parquet", ".csv"} {
		if interval != "" {
			candidates = append(candidates,
				filepath.Join(dataRoot, symbol, interval+ext),
				filepath.Join(dataRoot, symbol, f.ConvertIntervalToMinutes(interval), "candles"+ext))
		}
		candidates = append(candidates, filepath.Join(dataRoot, symbol+ext))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
