package strategy

import (
	"math"

	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Strategy turns a bar series into directional signals and sizes entries
type Strategy interface {
	// Name returns the name of the strategy
	Name() string

	// GenerateSignals returns one direction per bar plus any auxiliary
	// columns the strategy wants available when sizing
	GenerateSignals(bars []types.OHLCV) (*SignalFrame, error)

	// CalculatePositionSize returns the signed quantity to open given the
	// signal context and all bars up to and including the current one
	CalculatePositionSize(ctx SignalContext, history []types.OHLCV) float64
}

// Direction is the held or requested side of the market
type Direction int

const (
	Short Direction = -1
	Flat  Direction = 0
	Long  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Short:
		return "SHORT"
	case Flat:
		return "FLAT"
	case Long:
		return "LONG"
	default:
		return "UNKNOWN"
	}
}

// Sign returns -1, 0 or 1 as a float multiplier
func (d Direction) Sign() float64 {
	return float64(d)
}

// SignalContext describes the bar an entry is being sized for
type SignalContext struct {
	Index   int
	Signal  Direction
	Price   float64 // execution price after slippage
	Capital float64 // run capital before the entry
	Values  map[string]float64
}

// Value returns an auxiliary column value, or fallback when absent.
func (c SignalContext) Value(name string, fallback float64) float64 {
	if v, ok := c.Values[name]; ok {
		return v
	}
	return fallback
}

// SignalFrame is the output of GenerateSignals, aligned to the input bars
type SignalFrame struct {
	Signals []Direction
	Columns map[string][]float64
}

// NewSignalFrame creates a flat frame of n bars
func NewSignalFrame(n int) *SignalFrame {
	return &SignalFrame{
		Signals: make([]Direction, n),
		Columns: make(map[string][]float64),
	}
}

func (f *SignalFrame) Len() int {
	return len(f.Signals)
}

// Values returns the non-NaN auxiliary values at bar i
func (f *SignalFrame) Values(i int) map[string]float64 {
	out := make(map[string]float64, len(f.Columns))
	for name, col := range f.Columns {
		if i < len(col) && !math.IsNaN(col[i]) {
			out[name] = col[i]
		}
	}
	return out
}
