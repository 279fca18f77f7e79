package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/portfolio"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/data"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

func syntheticSeries(t *testing.T, bars int) map[string][]types.OHLCV {
	t.Helper()
	cfg := config.NewDefaultConfig()
	opts := runOptions{synthetic: bars, seed: 42}
	require.NoError(t, opts.apply(cfg, nil, ""))

	series, err := loadSeries(cfg, opts, logger.Nop())
	require.NoError(t, err)
	return series
}

func TestParseAssets(t *testing.T) {
	assets, err := parseAssets("btc=data/BTC.csv, ETH = data/ETH.parquet,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"BTC": "data/BTC.csv", "ETH": "data/ETH.parquet"}, assets)

	for _, bad := range []string{"BTC", "=x.csv", "BTC=", "BTC=a.csv,btc=b.csv"} {
		_, err := parseAssets(bad)
		assert.Error(t, err, bad)
	}
}

func TestApplyOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	opts := runOptions{synthetic: 100, maxWeight: 0.4, frontier: 50, seed: 7}
	require.NoError(t, opts.apply(cfg, map[string]bool{"max-weight": true, "frontier": true}, ""))
	assert.Len(t, cfg.Portfolio.Assets, len(syntheticAssets))
	assert.Equal(t, 0.4, cfg.Portfolio.Optimizer.MaxWeight)
	assert.Equal(t, 50, cfg.Portfolio.FrontierSamples)
	assert.Equal(t, int64(42), cfg.Portfolio.Seed, "unset flags keep config values")

	err := runOptions{synthetic: 100, maxWeight: 0.2}.apply(config.NewDefaultConfig(), map[string]bool{"max-weight": true}, "")
	assert.ErrorContains(t, err, "cannot sum to 1")

	err = runOptions{}.apply(config.NewDefaultConfig(), nil, "")
	assert.ErrorContains(t, err, "at least 2 assets")

	err = runOptions{symbols: "BTCUSDT,ETHUSDT"}.apply(config.NewDefaultConfig(), nil, t.TempDir())
	assert.ErrorContains(t, err, "BTCUSDT")
}

func TestOptimize(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Portfolio.FrontierSamples = 100

	report, err := optimize(cfg, syntheticSeries(t, 300), logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"ASSET_A", "ASSET_B", "ASSET_C", "ASSET_D"}, report.Assets)
	require.Len(t, report.Optimized, 2)
	assert.Equal(t, portfolio.MethodMaxSharpe, report.Optimized[0].Method)
	assert.Equal(t, portfolio.MethodMinVolatility, report.Optimized[1].Method)
	for _, r := range report.Optimized {
		assert.InDelta(t, 1, r.Weights.Sum(), 1e-6)
	}
	require.NotNil(t, report.RiskParity)
	assert.InDelta(t, 1, report.RiskParity.Sum(), 1e-9)
	// inverse volatility favors the quietest asset
	assert.Greater(t, report.RiskParity["ASSET_A"], report.RiskParity["ASSET_D"])
	assert.Len(t, report.Frontier, 100)
	require.Len(t, report.Correlation, 4)
	assert.InDelta(t, 1, report.Correlation[2][2], 1e-9)
}

func TestOptimizeSkipsRiskParityOnFlatAsset(t *testing.T) {
	series := syntheticSeries(t, 100)
	flat := make([]types.OHLCV, len(series["ASSET_A"]))
	for i, bar := range series["ASSET_A"] {
		flat[i] = types.OHLCV{Timestamp: bar.Timestamp, Open: 1, High: 1, Low: 1, Close: 1}
	}
	series["FLAT"] = flat

	report, err := optimize(config.NewDefaultConfig(), series, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, report.RiskParity)
	assert.Len(t, report.Optimized, 2)
}

func TestOptimizeRejectsMisalignedSeries(t *testing.T) {
	a := data.GenerateSynthetic(data.DefaultSyntheticConfig())
	b := data.DefaultSyntheticConfig()
	b.Start = b.Start.AddDate(5, 0, 0)

	_, err := optimize(config.NewDefaultConfig(), map[string][]types.OHLCV{"A": a, "B": data.GenerateSynthetic(b)}, logger.Nop())
	assert.Error(t, err)
}

func TestRunWritesReports(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Formats = []string{config.FormatCSV, config.FormatJSON}
	cfg.Portfolio.FrontierSamples = 20
	opts := runOptions{synthetic: 120, seed: 1}
	require.NoError(t, opts.apply(cfg, nil, ""))

	require.NoError(t, run(cfg, opts, logger.Nop()))

	dir := filepath.Join(cfg.Output.Dir, outputLabel)
	assert.FileExists(t, filepath.Join(dir, "portfolio_weights.csv"))
	assert.FileExists(t, filepath.Join(dir, "portfolio.json"))
}
