package backtest

import (
	stderrors "errors"
	"math"
	"time"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/internal/risk"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

var (
	// ErrUnknownPriceColumn is returned when Run is asked to trade a column bars do not have
	ErrUnknownPriceColumn = stderrors.New("unknown price column")
	// ErrSignalMisaligned is returned when a strategy's signal frame length differs from the bars
	ErrSignalMisaligned = stderrors.New("signal frame not aligned with bars")
)

const component = "backtest"

// Config holds the execution knobs of a backtest
type Config struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	Commission     float64 `json:"commission" yaml:"commission"`
	Slippage       float64 `json:"slippage" yaml:"slippage"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
	// Symbol keys the position; defaults to the price column name
	Symbol string `json:"symbol" yaml:"symbol"`
}

// DefaultConfig returns 100k capital, 0.1% commission and 0.05% slippage
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		Commission:     0.001,
		Slippage:       0.0005,
		RiskFreeRate:   0,
		PeriodsPerYear: risk.DefaultPeriodsPerYear,
	}
}

// Backtester simulates a strategy bar by bar. It holds no run state, so one
// Backtester may serve concurrent Run calls.
type Backtester struct {
	strategy strategy.Strategy
	config   Config
	logger   *logger.Logger
}

func NewBacktester(strat strategy.Strategy, config Config) *Backtester {
	return &Backtester{
		strategy: strat,
		config:   config,
		logger:   logger.Nop(),
	}
}

// SetLogger routes trade and skip logging to l
func (b *Backtester) SetLogger(l *logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	b.logger = l
}

func (b *Backtester) Config() Config {
	return b.config
}

func (b *Backtester) Strategy() strategy.Strategy {
	return b.strategy
}

// Run generates signals for bars and folds the simulation over them,
// trading at the given price column.
func (b *Backtester) Run(bars []types.OHLCV, column string) (*Results, error) {
	col, ok := types.ParsePriceColumn(column)
	if !ok {
		return nil, qerr.Wrap(ErrUnknownPriceColumn, qerr.ErrorCategoryValidation, component, "run").
			WithMessage("column %q", column)
	}

	symbol := b.config.Symbol
	if symbol == "" {
		symbol = string(col)
	}
	results := &Results{
		Strategy:       b.strategy.Name(),
		Symbol:         symbol,
		PriceColumn:    col,
		InitialCapital: b.config.InitialCapital,
	}
	if len(bars) == 0 {
		return results, nil
	}

	started := time.Now()
	frame, err := b.strategy.GenerateSignals(bars)
	if err != nil {
		return nil, qerr.Wrap(err, qerr.ErrorCategoryData, component, "generate_signals").
			WithContext("strategy", b.strategy.Name())
	}
	if frame == nil || frame.Len() != len(bars) {
		n := 0
		if frame != nil {
			n = frame.Len()
		}
		return nil, qerr.Wrap(ErrSignalMisaligned, qerr.ErrorCategoryValidation, component, "run").
			WithMessage("%d signals for %d bars", n, len(bars))
	}

	prices := make([]float64, len(bars))
	for i, bar := range bars {
		prices[i], _ = bar.Value(col)
	}

	run := &runInput{bars: bars, prices: prices, frame: frame, symbol: symbol}
	state := newRunState(b.config.InitialCapital, len(bars))
	for i := range bars {
		state = b.step(state, run, i)
	}

	results.Rows = state.rows
	results.Trades = state.trades
	results.SkippedEntries = state.skipped
	results.computeReturns()

	elapsed := time.Since(started)
	monitoring.RecordBacktest(results.Strategy, elapsed)
	b.logger.Status("%s on %s: %d bars, %d trades, %d skipped, final value %.2f (%s)",
		results.Strategy, symbol, len(bars), len(results.Trades), results.SkippedEntries,
		results.FinalValue(), elapsed)

	return results, nil
}

// runInput is the read-only input shared by every step of one run
type runInput struct {
	bars   []types.OHLCV
	prices []float64
	frame  *strategy.SignalFrame
	symbol string
}

// runState is the value folded across bars. positions only holds nonzero
// quantities.
type runState struct {
	capital   float64
	held      strategy.Direction
	positions map[string]float64
	trades    []Trade
	rows      []ResultRow
	skipped   int
}

func newRunState(capital float64, n int) runState {
	return runState{
		capital:   capital,
		held:      strategy.Flat,
		positions: make(map[string]float64),
		rows:      make([]ResultRow, 0, n),
	}
}

// step advances the state by one bar: any transition first, then the
// bar's mark-to-market record.
func (b *Backtester) step(st runState, in *runInput, i int) runState {
	price := in.prices[i]
	signal := normalizeSignal(in.frame.Signals[i])

	if signal != st.held {
		if st.held != strategy.Flat {
			st = b.closePosition(st, in, i)
		}
		if signal != strategy.Flat {
			st = b.openPosition(st, in, i, signal)
		}
	}

	qty := st.positions[in.symbol]
	value := st.capital + qty*price
	st.rows = append(st.rows, ResultRow{
		Timestamp:      in.bars[i].Timestamp,
		Price:          price,
		Signal:         in.frame.Signals[i],
		Position:       st.held,
		Quantity:       qty,
		Capital:        st.capital,
		PortfolioValue: value,
		EquityCurve:    value,
	})
	return st
}

func (b *Backtester) openPosition(st runState, in *runInput, i int, side strategy.Direction) runState {
	exec := b.executionPrice(in.prices[i], side)

	ctx := strategy.SignalContext{
		Index:   i,
		Signal:  side,
		Price:   exec,
		Capital: st.capital,
		Values:  in.frame.Values(i),
	}
	qty := math.Abs(b.strategy.CalculatePositionSize(ctx, in.bars[:i+1]))
	if qty == 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		b.logger.Debug("%s: no size for %s entry at bar %d", b.strategy.Name(), side, i)
		return st
	}

	value := qty * exec
	commission := value * b.config.Commission
	if st.capital < value+commission {
		st.skipped++
		monitoring.RecordSkippedTrade(b.strategy.Name())
		b.logger.Warning("%s: skipped %s entry at bar %d, needs %.2f, capital %.2f",
			b.strategy.Name(), side, i, value+commission, st.capital)
		return st
	}

	signed := qty * side.Sign()
	st.capital -= signed*exec + commission
	st.positions[in.symbol] = signed
	st.held = side

	tradeSide := SideBuy
	if side == strategy.Short {
		tradeSide = SideSell
	}
	st.trades = append(st.trades, Trade{
		Timestamp:  in.bars[i].Timestamp,
		Side:       tradeSide,
		Quantity:   qty,
		Price:      exec,
		Value:      value,
		Commission: commission,
	})
	monitoring.RecordTrade(b.strategy.Name(), string(tradeSide), value)
	b.logger.Trade("OPEN %s %.6f %s @ %.4f (value %.2f, commission %.2f)",
		side, qty, in.symbol, exec, value, commission)
	return st
}

// closePosition exits the held position. Realized PnL is measured against
// the previous bar's price only.
func (b *Backtester) closePosition(st runState, in *runInput, i int) runState {
	qty, ok := st.positions[in.symbol]
	if !ok {
		st.held = strategy.Flat
		return st
	}

	exitSide := strategy.Short
	if qty < 0 {
		exitSide = strategy.Long
	}
	exec := b.executionPrice(in.prices[i], exitSide)
	value := math.Abs(qty) * exec
	commission := value * b.config.Commission

	var pnl float64
	if i > 0 {
		pnl = (exec - in.prices[i-1]) * qty
	}

	st.capital += qty*exec - commission
	delete(st.positions, in.symbol)
	st.held = strategy.Flat

	st.trades = append(st.trades, Trade{
		Timestamp:  in.bars[i].Timestamp,
		Side:       SideExit,
		Quantity:   math.Abs(qty),
		Price:      exec,
		Value:      value,
		Commission: commission,
		PnL:        &pnl,
	})
	monitoring.RecordTrade(b.strategy.Name(), string(SideExit), value)
	b.logger.Trade("CLOSE %.6f %s @ %.4f (pnl %.2f, commission %.2f)",
		math.Abs(qty), in.symbol, exec, pnl, commission)
	return st
}

// executionPrice applies slippage against the trader: buys pay up, sells
// receive less.
func (b *Backtester) executionPrice(price float64, side strategy.Direction) float64 {
	if side == strategy.Long {
		return price * (1 + b.config.Slippage)
	}
	return price * (1 - b.config.Slippage)
}

func normalizeSignal(s strategy.Direction) strategy.Direction {
	switch {
	case s > 0:
		return strategy.Long
	case s < 0:
		return strategy.Short
	default:
		return strategy.Flat
	}
}
