package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/data"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

func bars(n int, seed int64) []types.OHLCV {
	cfg := data.DefaultSyntheticConfig()
	cfg.Bars = n
	cfg.Seed = seed
	return data.GenerateSynthetic(cfg)
}

// dataRoot lays out BTCUSDT with 1h (twice, under both naming schemes),
// 1d and a 4h file too short to backtest
func dataRoot(t *testing.T) string {
	root := t.TempDir()
	dm := data.NewDataManager()
	require.NoError(t, dm.Save(filepath.Join(root, "BTCUSDT", "1h.csv"), bars(150, 1)))
	require.NoError(t, dm.Save(filepath.Join(root, "BTCUSDT", "60", "candles.csv"), bars(150, 2)))
	require.NoError(t, dm.Save(filepath.Join(root, "BTCUSDT", "1d.parquet"), bars(120, 3)))
	require.NoError(t, dm.Save(filepath.Join(root, "BTCUSDT", "4h.csv"), bars(10, 4)))
	require.NoError(t, os.WriteFile(filepath.Join(root, "BTCUSDT", "notes.txt"), []byte("x"), 0o644))
	return root
}

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Backtest.Symbol = "BTCUSDT"
	cfg.Workers = 2
	return cfg
}

func TestFindAvailableIntervals(t *testing.T) {
	root := dataRoot(t)
	r := NewDefaultIntervalRunner("", 0)

	intervals, err := r.FindAvailableIntervals(root, "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, []string{"1h", "4h", "1d"}, intervals)

	_, err = r.FindAvailableIntervals(root, "ETHUSDT")
	assert.Error(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "EMPTY"), 0o755))
	_, err = r.FindAvailableIntervals(root, "EMPTY")
	assert.Equal(t, qerr.ErrorCategoryData, qerr.CategoryOf(err))
}

func TestRunForInterval(t *testing.T) {
	root := dataRoot(t)
	cfg := testConfig()
	r := NewDefaultIntervalRunner("total_return", 0)

	res, err := r.RunForInterval(context.Background(), cfg, root, "1d")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "BTCUSDT", "1d.parquet"), res.DataFile)
	assert.Equal(t, 120, res.Bars)
	require.Len(t, res.Reports, len(cfg.Strategies))

	best := res.BestReport()
	require.NotNil(t, best)
	for _, rep := range res.Reports {
		assert.LessOrEqual(t, rep.Metrics.TotalReturn, best.Metrics.TotalReturn)
	}
	assert.Equal(t, best.Metrics.TotalReturn, res.Score)

	_, err = r.RunForInterval(context.Background(), cfg, root, "4h")
	assert.ErrorContains(t, err, "need at least")

	_, err = r.RunForInterval(context.Background(), cfg, root, "15m")
	assert.Error(t, err)
}

func TestRunForIntervalPeriod(t *testing.T) {
	root := dataRoot(t)
	r := NewDefaultIntervalRunner("", 20*24*time.Hour)

	_, err := r.RunForInterval(context.Background(), testConfig(), root, "1d")
	assert.ErrorContains(t, err, "need at least", "a 20 day window leaves too few daily bars")
}

func TestRunMultiIntervalAnalysis(t *testing.T) {
	root := dataRoot(t)
	o := NewOrchestrator(NewDefaultIntervalRunner("sharpe_ratio", 0), "sharpe_ratio")

	analysis, err := o.RunMultiIntervalAnalysis(context.Background(), testConfig(), root)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", analysis.Symbol)
	require.Len(t, analysis.Results, 3)

	failed := analysis.Results[1]
	assert.Equal(t, "4h", failed.Interval)
	assert.Error(t, failed.Error)
	assert.Nil(t, failed.BestReport())

	require.NotNil(t, analysis.BestResult)
	for _, r := range analysis.Results {
		if r.Error == nil {
			assert.LessOrEqual(t, r.Score, analysis.BestResult.Score)
		}
	}
}

// stubRunner fails every interval with err
type stubRunner struct{ err error }

func (s stubRunner) FindAvailableIntervals(string, string) ([]string, error) {
	return []string{"1h", "1d"}, nil
}

func (s stubRunner) RunForInterval(context.Context, *config.Config, string, string) (*IntervalResult, error) {
	return nil, s.err
}

func TestRunMultiIntervalAnalysisFailures(t *testing.T) {
	_, err := NewOrchestrator(stubRunner{err: errors.New("boom")}, "").
		RunMultiIntervalAnalysis(context.Background(), testConfig(), "")
	assert.ErrorContains(t, err, "no interval produced results")

	_, err = NewOrchestrator(stubRunner{err: context.Canceled}, "").
		RunMultiIntervalAnalysis(context.Background(), testConfig(), "")
	assert.ErrorIs(t, err, context.Canceled)
}
