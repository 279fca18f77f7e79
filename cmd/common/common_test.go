package common

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-backtester/pkg/config"
)

func parseFlags(t *testing.T, args ...string) *CommonFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestApplyOverridesOnlyGivenFlags(t *testing.T) {
	cfg := config.NewDefaultConfig()
	parseFlags(t).Apply(cfg)
	assert.Equal(t, config.NewDefaultConfig(), cfg)

	f := parseFlags(t, "-workers", "8", "-output", "out", "-formats", "csv, JSON,csv", "-metrics-addr", ":9100", "-verbose")
	f.Apply(cfg)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, []string{"csv", "json"}, cfg.Output.Formats)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)

	parseFlags(t, "-formats", "csv", "-console-only").Apply(cfg)
	assert.Equal(t, []string{config.FormatConsole}, cfg.Output.Formats)
}

func TestParseFormats(t *testing.T) {
	assert.Nil(t, ParseFormats(""))
	assert.Nil(t, ParseFormats(" , "))
	assert.Equal(t, []string{"console", "xlsx"}, ParseFormats("Console,xlsx,,console"))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\nprice_column: open\n"), 0644))

	cfg, err := LoadConfig(parseFlags(t, "-config", path, "-formats", "csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "open", cfg.PriceColumn)
	assert.Equal(t, []string{"csv"}, cfg.Output.Formats)

	_, err = LoadConfig(parseFlags(t, "-config", path, "-formats", "pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")

	_, err = LoadConfig(parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "QB_COMMON_TEST_VALUE"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0644))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv(key))

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
}

func TestSetupLogger(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Logging.Dir = t.TempDir()

	l, err := SetupLogger(cfg, "backtest")
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(cfg.Logging.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "backtest_")
}

func TestFlagValidator(t *testing.T) {
	v := NewFlagValidator().
		ValidateInt("workers", 4, 1, 64).
		ValidateFloat("split", 0.7, 0.1, 0.9).
		ValidateChoice("method", "max_sharpe", []string{"max_sharpe", "min_volatility"})
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.GetError())

	v.ValidateInt("workers", 0, 1, 64).ValidateFile("data", "", true)
	assert.True(t, v.HasErrors())
	assert.Contains(t, v.GetError().Error(), "workers must be between 1 and 64")
	assert.Contains(t, v.GetError().Error(), "data is required")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
	assert.Equal(t, "3.0h", FormatDuration(3*time.Hour))
	assert.Equal(t, "2.0d", FormatDuration(48*time.Hour))
}
