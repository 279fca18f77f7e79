package backtest

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStrategy replays fixed signals. It sizes either a fixed quantity
// or a fraction of current capital.
type scriptedStrategy struct {
	signals  []strategy.Direction
	quantity float64
	fraction float64
	contexts []strategy.SignalContext
}

func (s *scriptedStrategy) Name() string { return "Scripted" }

func (s *scriptedStrategy) GenerateSignals(bars []types.OHLCV) (*strategy.SignalFrame, error) {
	frame := strategy.NewSignalFrame(len(s.signals))
	copy(frame.Signals, s.signals)
	return frame, nil
}

func (s *scriptedStrategy) CalculatePositionSize(ctx strategy.SignalContext, history []types.OHLCV) float64 {
	s.contexts = append(s.contexts, ctx)
	if s.quantity > 0 {
		return s.quantity * ctx.Signal.Sign()
	}
	return ctx.Capital * s.fraction / ctx.Price * ctx.Signal.Sign()
}

func barsAt(prices ...float64) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = types.OHLCV{
			Timestamp: start.AddDate(0, 0, i),
			Open:      p - 1,
			High:      p + 1,
			Low:       p - 2,
			Close:     p,
			Volume:    1000,
		}
	}
	return bars
}

func constantBars(n int, price float64) []types.OHLCV {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = price
	}
	return barsAt(prices...)
}

// generateTestData creates a deterministic random walk
func generateTestData(n int, seed int64) []types.OHLCV {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	p := 100.0
	for i := range prices {
		p *= 1 + 0.015*rng.NormFloat64()
		prices[i] = p
	}
	return barsAt(prices...)
}

func frictionless() Config {
	cfg := DefaultConfig()
	cfg.Commission = 0
	cfg.Slippage = 0
	return cfg
}

func repeat(d strategy.Direction, n int) []strategy.Direction {
	out := make([]strategy.Direction, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// TestRunFlatSignals tests that a strategy that never trades keeps capital constant
func TestRunFlatSignals(t *testing.T) {
	bars := constantBars(100, 100)
	bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Flat, 100)}, DefaultConfig())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Rows, 100)
	assert.Empty(t, results.Trades)

	for _, row := range results.Rows {
		assert.Equal(t, 100000.0, row.PortfolioValue)
		assert.Equal(t, 100000.0, row.EquityCurve)
		assert.Equal(t, strategy.Flat, row.Position)
	}
	assert.True(t, math.IsNaN(results.Rows[0].Return))
	assert.Equal(t, 0.0, results.Rows[1].Return)

	m := bt.PerformanceMetrics(results)
	require.NotNil(t, m)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0, m.NumTrades)
	assert.Equal(t, 0.0, m.WinRate)
}

// TestRunSingleEntryFill tests fill price, quantity and commission of one entry
func TestRunSingleEntryFill(t *testing.T) {
	bars := barsAt(100, 101, 102)
	strat := &scriptedStrategy{signals: repeat(strategy.Long, 3), fraction: 0.25}
	bt := NewBacktester(strat, DefaultConfig())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Trades, 1)

	trade := results.Trades[0]
	assert.Equal(t, SideBuy, trade.Side)
	assert.InDelta(t, 100.05, trade.Price, 1e-9)
	assert.InDelta(t, 25000/100.05, trade.Quantity, 1e-9)
	assert.InDelta(t, 25000.0, trade.Value, 1e-9)
	assert.InDelta(t, 25.0, trade.Commission, 1e-9)
	assert.Nil(t, trade.PnL)

	// the sizer saw the slipped price and the starting capital
	require.Len(t, strat.contexts, 1)
	assert.InDelta(t, 100.05, strat.contexts[0].Price, 1e-9)
	assert.Equal(t, 100000.0, strat.contexts[0].Capital)

	assert.InDelta(t, 74975.0, results.FinalCapital(), 1e-6)
	assert.InDelta(t, 74975+trade.Quantity*102, results.FinalValue(), 1e-6)
	for _, row := range results.Rows {
		assert.Equal(t, strategy.Long, row.Position)
	}
}

// TestPortfolioValueInvariant tests value = capital + qty·price on every bar
func TestPortfolioValueInvariant(t *testing.T) {
	bars := generateTestData(300, 21)
	strat := strategy.NewMeanReversion()
	strat.EntryThreshold = 1.5
	bt := NewBacktester(strat, DefaultConfig())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.NotEmpty(t, results.Trades)

	for i, row := range results.Rows {
		assert.InDelta(t, row.Capital+row.Quantity*bars[i].Close, row.PortfolioValue, 1e-6, "bar %d", i)
		assert.Equal(t, row.PortfolioValue, row.EquityCurve)
		if row.Position == strategy.Flat {
			assert.Equal(t, 0.0, row.Quantity)
		}
	}
}

// TestRunDeterministic tests that reruns produce bit-identical results
func TestRunDeterministic(t *testing.T) {
	bars := generateTestData(250, 5)
	bt := NewBacktester(strategy.NewMomentum(), DefaultConfig())

	first, err := bt.Run(bars, "close")
	require.NoError(t, err)
	second, err := bt.Run(bars, "close")
	require.NoError(t, err)

	require.Equal(t, len(first.Rows), len(second.Rows))
	for i := range first.Rows {
		a, b := first.Rows[i], second.Rows[i]
		assert.Equal(t, math.Float64bits(a.PortfolioValue), math.Float64bits(b.PortfolioValue))
		assert.Equal(t, math.Float64bits(a.Capital), math.Float64bits(b.Capital))
		assert.Equal(t, math.Float64bits(a.Return), math.Float64bits(b.Return))
	}
	assert.Equal(t, first.Trades, second.Trades)
}

// TestRealizedPnLIsOneBarDelta pins the close-out PnL to the last bar's move
func TestRealizedPnLIsOneBarDelta(t *testing.T) {
	bars := barsAt(100, 110, 120, 130)
	signals := []strategy.Direction{strategy.Long, strategy.Long, strategy.Long, strategy.Flat}
	bt := NewBacktester(&scriptedStrategy{signals: signals, quantity: 10}, frictionless())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Trades, 2)

	exit := results.Trades[1]
	assert.Equal(t, SideExit, exit.Side)
	require.NotNil(t, exit.PnL)
	// (130 - 120) * 10, not (130 - 100) * 10
	assert.InDelta(t, 100.0, *exit.PnL, 1e-9)

	// capital still reflects the full round trip
	assert.InDelta(t, 100300.0, results.FinalCapital(), 1e-9)
	assert.Equal(t, strategy.Flat, results.Rows[3].Position)
	assert.Equal(t, 0.0, results.Rows[3].Quantity)
}

// TestInsufficientCapitalSkipsEntry tests the silent skip policy
func TestInsufficientCapitalSkipsEntry(t *testing.T) {
	bars := constantBars(5, 100)
	bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Long, 5), quantity: 5000}, DefaultConfig())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	assert.Empty(t, results.Trades)
	assert.Equal(t, 5, results.SkippedEntries)
	for _, row := range results.Rows {
		assert.Equal(t, strategy.Flat, row.Position)
		assert.Equal(t, 100000.0, row.PortfolioValue)
	}
}

// TestShortRoundTrip tests short entry and cover with slippage
func TestShortRoundTrip(t *testing.T) {
	bars := barsAt(100, 90, 95)
	signals := []strategy.Direction{strategy.Short, strategy.Short, strategy.Flat}
	cfg := DefaultConfig()
	bt := NewBacktester(&scriptedStrategy{signals: signals, quantity: 100}, cfg)

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Trades, 2)

	entry, exit := results.Trades[0], results.Trades[1]
	assert.Equal(t, SideSell, entry.Side)
	assert.InDelta(t, 100*(1-cfg.Slippage), entry.Price, 1e-9)
	assert.InDelta(t, 95*(1+cfg.Slippage), exit.Price, 1e-9)

	// short gains on the last bar's move are negative: price rose 90 -> 95
	require.NotNil(t, exit.PnL)
	assert.InDelta(t, (exit.Price-90)*-100, *exit.PnL, 1e-9)
	assert.Less(t, *exit.PnL, 0.0)

	assert.Equal(t, -100.0, results.Rows[1].Quantity)
	// shorting 100 at ~100 and covering at ~95 leaves a profit net of costs
	assert.Greater(t, results.FinalValue(), 100000.0)
	assert.InDelta(t, results.FinalCapital(), results.FinalValue(), 1e-9)
}

// TestShortCashFlows tests that a short open credits the proceeds and the
// cover pays them back, keeping value = capital + qty × price
func TestShortCashFlows(t *testing.T) {
	bars := barsAt(100, 100, 100)
	signals := []strategy.Direction{strategy.Short, strategy.Flat, strategy.Flat}
	bt := NewBacktester(&scriptedStrategy{signals: signals, quantity: 10}, frictionless())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Trades, 2)

	assert.InDelta(t, 101000.0, results.Rows[0].Capital, 1e-9)
	assert.Equal(t, -10.0, results.Rows[0].Quantity)
	assert.InDelta(t, 100000.0, results.Rows[1].Capital, 1e-9)
	assert.Equal(t, 0.0, results.Rows[1].Quantity)
	for _, row := range results.Rows {
		assert.InDelta(t, row.Capital+row.Quantity*row.Price, row.PortfolioValue, 1e-9)
		assert.InDelta(t, 100000.0, row.PortfolioValue, 1e-9)
	}
}

// TestReversalClosesThenOpens tests a direct LONG -> SHORT transition
func TestReversalClosesThenOpens(t *testing.T) {
	bars := barsAt(100, 100)
	signals := []strategy.Direction{strategy.Long, strategy.Short}
	bt := NewBacktester(&scriptedStrategy{signals: signals, quantity: 10}, frictionless())

	results, err := bt.Run(bars, "close")
	require.NoError(t, err)
	require.Len(t, results.Trades, 3)
	assert.Equal(t, SideBuy, results.Trades[0].Side)
	assert.Equal(t, SideExit, results.Trades[1].Side)
	assert.Equal(t, SideSell, results.Trades[2].Side)

	last := results.Rows[1]
	assert.Equal(t, strategy.Short, last.Position)
	assert.Equal(t, -10.0, last.Quantity)
	assert.InDelta(t, 101000.0, last.Capital, 1e-9)
	assert.InDelta(t, 100000.0, last.PortfolioValue, 1e-9)
}

// TestKellySizedStrategyTrades tests that swapping in the configured Kelly
// sizer changes quantities but not which entries fill
func TestKellySizedStrategyTrades(t *testing.T) {
	bars := generateTestData(400, 42)
	params := map[string]float64{"entry_threshold": 1.5}

	plain, err := strategy.New(strategy.Config{Name: "mean_reversion", Parameters: params})
	require.NoError(t, err)
	base, err := NewBacktester(plain, DefaultConfig()).Run(bars, "close")
	require.NoError(t, err)
	require.NotEmpty(t, base.Trades)

	kellyCfg := sizing.DefaultConfig()
	kelly, err := strategy.New(strategy.Config{Name: "mean_reversion", Parameters: params, Sizing: &kellyCfg})
	require.NoError(t, err)
	results, err := NewBacktester(kelly, DefaultConfig()).Run(bars, "close")
	require.NoError(t, err)

	assert.Len(t, results.Trades, len(base.Trades))
	assert.Zero(t, results.SkippedEntries)
	for _, tr := range results.Trades {
		assert.Greater(t, tr.Quantity, 0.0)
	}
}

func TestResultRowJSON(t *testing.T) {
	bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Flat, 2)}, frictionless())
	results, err := bt.Run(constantBars(2, 100), "close")
	require.NoError(t, err)

	data, err := json.Marshal(results.Rows)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)

	first, ok := rows[0]["returns"]
	require.True(t, ok, "returns is always present")
	assert.Nil(t, first)
	assert.Equal(t, 0.0, rows[1]["returns"])
	assert.Equal(t, 100000.0, rows[1]["portfolio_value"])
	assert.Equal(t, 100.0, rows[1]["price"])
}

// TestRunUsesPriceColumn tests trading against a non-close column
func TestRunUsesPriceColumn(t *testing.T) {
	bars := barsAt(100, 100)
	bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Long, 2), quantity: 1}, frictionless())

	results, err := bt.Run(bars, "Open")
	require.NoError(t, err)
	assert.Equal(t, types.ColumnOpen, results.PriceColumn)
	assert.Equal(t, "open", results.Symbol)
	assert.InDelta(t, 99.0, results.Trades[0].Price, 1e-9)
}

// TestRunEmptyInput tests that no bars yield empty results and no metrics
func TestRunEmptyInput(t *testing.T) {
	bt := NewBacktester(&scriptedStrategy{}, DefaultConfig())

	results, err := bt.Run(nil, "close")
	require.NoError(t, err)
	assert.Empty(t, results.Rows)
	assert.Empty(t, results.Trades)
	assert.Equal(t, 100000.0, results.FinalValue())
	assert.Nil(t, bt.PerformanceMetrics(results))
}

// TestRunStructuralErrors tests the two misuse errors
func TestRunStructuralErrors(t *testing.T) {
	bars := constantBars(3, 100)

	t.Run("unknown column", func(t *testing.T) {
		bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Flat, 3)}, DefaultConfig())
		_, err := bt.Run(bars, "vwap")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownPriceColumn))
		assert.Equal(t, qerr.ErrorCategoryValidation, qerr.CategoryOf(err))
	})

	t.Run("misaligned signals", func(t *testing.T) {
		bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Flat, 2)}, DefaultConfig())
		_, err := bt.Run(bars, "close")
		assert.ErrorIs(t, err, ErrSignalMisaligned)
	})
}

// TestRunStateNotRetained tests that a second run starts from initial capital
func TestRunStateNotRetained(t *testing.T) {
	bars := barsAt(100, 120)
	bt := NewBacktester(&scriptedStrategy{signals: repeat(strategy.Long, 2), quantity: 10}, frictionless())

	first, err := bt.Run(bars, "close")
	require.NoError(t, err)
	second, err := bt.Run(bars, "close")
	require.NoError(t, err)

	assert.Equal(t, 99000.0, first.Rows[0].Capital)
	assert.Equal(t, 99000.0, second.Rows[0].Capital)
	assert.Equal(t, first.FinalValue(), second.FinalValue())
}
