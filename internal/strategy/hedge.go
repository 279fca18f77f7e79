package strategy

import (
	"math"

	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Hedge goes long in calm regimes on up bars and short in turbulent regimes
// on down bars. Regimes compare rolling annualized volatility with its own
// rolling low and high quantiles.
type Hedge struct {
	LookbackPeriod int
	RegimeWindow   int
	LowQuantile    float64
	HighQuantile   float64
	MaxPositionPct float64
	// ReferenceVolatility is the volatility at which the full allocation applies
	ReferenceVolatility float64
	Sizer               sizing.PositionSizer
}

func NewHedge() *Hedge {
	return &Hedge{
		LookbackPeriod:      30,
		RegimeWindow:        60,
		LowQuantile:         0.3,
		HighQuantile:        0.7,
		MaxPositionPct:      0.2,
		ReferenceVolatility: 0.3,
	}
}

func (s *Hedge) Name() string { return "Hedge" }

func (s *Hedge) GenerateSignals(bars []types.OHLCV) (*SignalFrame, error) {
	closes := types.Closes(bars)
	returns := indicators.PctChange(closes)
	vol := annualizedVolatility(closes, s.LookbackPeriod)
	low := indicators.RollingQuantile(vol, s.RegimeWindow, s.LowQuantile)
	high := indicators.RollingQuantile(vol, s.RegimeWindow, s.HighQuantile)

	raw := make([]Direction, len(bars))
	for i := range bars {
		r := returns[i]
		switch {
		case vol[i] < low[i] && r > 0:
			raw[i] = Long
		case vol[i] > high[i] && r < 0:
			raw[i] = Short
		}
	}

	frame := NewSignalFrame(len(bars))
	frame.Columns["returns"] = returns
	frame.Columns[ColumnVolatility] = vol
	frame.Signals = forwardFill(raw)
	return frame, nil
}

// CalculatePositionSize shrinks the allocation when volatility is above the
// reference level.
func (s *Hedge) CalculatePositionSize(ctx SignalContext, _ []types.OHLCV) float64 {
	vol := ctx.Value(ColumnVolatility, s.ReferenceVolatility)
	factor := math.Min(1, s.ReferenceVolatility/math.Max(vol, 0.01))
	return sizeEntry(s.Sizer, ctx, ctx.Capital*s.MaxPositionPct*factor)
}
