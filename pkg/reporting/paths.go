package reporting

import (
	"os"
	"path/filepath"
	"strings"
)

// OutputDir returns {base}/{SYMBOL}, or {base}/UNKNOWN without a symbol
func OutputDir(base, symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		s = "UNKNOWN"
	}
	if base == "" {
		base = "results"
	}
	return filepath.Join(base, s)
}

// FileName builds "{strategy}_{kind}.{ext}" with a filesystem-safe strategy name
func FileName(strategy, kind, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strategy)
	return safe + "_" + kind + "." + ext
}

// EnsureDirectoryExists creates the parent directory of path
func EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
