package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.Equal(t, 100000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.001, cfg.Backtest.Commission)
	assert.Equal(t, 0.0005, cfg.Backtest.Slippage)
	assert.Equal(t, 252, cfg.Backtest.PeriodsPerYear)
	assert.Len(t, cfg.Strategies, 4)
	assert.True(t, cfg.WantsFormat(FormatConsole))
	assert.False(t, cfg.WantsFormat(FormatExcel))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }, "initial capital"},
		{"negative commission", func(c *Config) { c.Backtest.Commission = -0.01 }, "commission"},
		{"huge slippage", func(c *Config) { c.Backtest.Slippage = 0.5 }, "slippage"},
		{"bad column", func(c *Config) { c.PriceColumn = "vwap" }, "price column"},
		{"unknown strategy", func(c *Config) { c.Strategies = append(c.Strategies, strategyNamed("martingale")) }, "martingale"},
		{"inverted bounds", func(c *Config) { c.Portfolio.Optimizer.MinWeight = 0.6; c.Portfolio.Optimizer.MaxWeight = 0.4 }, "min weight"},
		{"infeasible bounds", func(c *Config) {
			c.Portfolio.Assets = map[string]string{"A": "a.csv", "B": "b.csv"}
			c.Portfolio.Optimizer.MaxWeight = 0.3
		}, "cannot sum to 1"},
		{"zero tolerance", func(c *Config) { c.Portfolio.Optimizer.Tolerance = 0 }, "tolerance"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad format", func(c *Config) { c.Output.Formats = []string{"pdf"} }, "output format"},
		{"bad date", func(c *Config) { c.StartDate = "01/02/2024" }, "start date"},
		{"reversed dates", func(c *Config) { c.StartDate = "2024-02-01"; c.EndDate = "2024-01-01" }, "before end date"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := NewValidator().Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_file: data/BTCUSDT.csv
price_column: Close
backtest:
  initial_capital: 50000
  commission: 0.002
  slippage: 0
  periods_per_year: 365
strategies:
  - name: mean_reversion
    parameters:
      lookback_period: 30
      entry_threshold: 1.5
  - name: momentum
    sizing:
      method: kelly
      kelly_fraction: 0.5
portfolio:
  assets:
    BTC: data/btc.csv
    ETH: data/eth.csv
  optimizer:
    max_weight: 0.8
    max_iterations: 500
    tolerance: 0.000001
    periods_per_year: 365
output:
  dir: out
  formats: [console, csv, xlsx]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/BTCUSDT.csv", cfg.DataFile)
	assert.Equal(t, 50000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.0, cfg.Backtest.Slippage)
	assert.Equal(t, 365, cfg.Backtest.PeriodsPerYear)
	require.Len(t, cfg.Strategies, 2)
	assert.Equal(t, 30.0, cfg.Strategies[0].Parameters["lookback_period"])
	require.NotNil(t, cfg.Strategies[1].Sizing)
	assert.Equal(t, 0.5, cfg.Strategies[1].Sizing.KellyFraction)
	assert.Equal(t, 0.8, cfg.Portfolio.Optimizer.MaxWeight)
	assert.Equal(t, 500, cfg.Portfolio.Optimizer.MaxIterations)
	// unset fields keep their defaults
	assert.Equal(t, 500, cfg.Portfolio.FrontierSamples)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.WantsFormat(FormatExcel))
}

func TestLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.DataFile = "bars.parquet"
	cfg.Backtest.Commission = 0.0015
	cfg.Output.Formats = []string{FormatJSON}

	path := filepath.Join(dir, "nested", "best.json")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"backtest": {"initial_capital": -1}}`), 0644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial capital")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvInitialCapital, "25000")
	t.Setenv(EnvCommission, "0.0002")
	t.Setenv(EnvRiskFreeRate, "0.03")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMetricsAddr, ":9100")
	t.Setenv(EnvWorkers, "8")

	cfg := NewDefaultConfig()
	require.NoError(t, cfg.ApplyEnvOverrides())

	assert.Equal(t, 25000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.0002, cfg.Backtest.Commission)
	assert.Equal(t, 0.03, cfg.Backtest.RiskFreeRate)
	assert.Equal(t, 0.03, cfg.Portfolio.Optimizer.RiskFreeRate)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, 8, cfg.Workers)

	t.Setenv(EnvSlippage, "lots")
	assert.Error(t, cfg.ApplyEnvOverrides())
}

func TestDateRange(t *testing.T) {
	cfg := NewDefaultConfig()
	start, end, err := cfg.DateRange()
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	cfg.StartDate, cfg.EndDate = "2024-01-01", "2024-06-30"
	start, end, err = cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, 30, end.Day())
}

func strategyNamed(name string) strategy.Config {
	return strategy.Config{Name: name}
}
