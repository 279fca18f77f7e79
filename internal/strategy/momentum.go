package strategy

import (
	"math"

	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Momentum follows MACD crossovers confirmed by RSI. It goes long when MACD
// is above its signal with RSI between 50 and overbought, short on the
// mirror condition, and otherwise keeps the last side.
type Momentum struct {
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	RSIPeriod       int
	RSIOversold     float64
	RSIOverbought   float64
	PositionSizePct float64
	Sizer           sizing.PositionSizer
}

func NewMomentum() *Momentum {
	return &Momentum{
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		RSIPeriod:       14,
		RSIOversold:     30,
		RSIOverbought:   70,
		PositionSizePct: 0.3,
	}
}

func (s *Momentum) Name() string { return "Momentum" }

func (s *Momentum) GenerateSignals(bars []types.OHLCV) (*SignalFrame, error) {
	closes := types.Closes(bars)
	frame := NewSignalFrame(len(bars))

	macd := indicators.MACD(closes, s.MACDFast, s.MACDSlow, s.MACDSignal)
	rsi := indicators.RSI(closes, s.RSIPeriod)
	frame.Columns["macd"] = macd.MACD
	frame.Columns["macd_signal"] = macd.Signal
	frame.Columns["macd_histogram"] = macd.Histogram
	frame.Columns["rsi"] = rsi
	frame.Columns[ColumnVolatility] = annualizedVolatility(closes, s.MACDSlow)
	frame.Columns[ColumnExpectedReturn] = annualizedMeanReturn(closes, s.MACDSlow)

	raw := make([]Direction, len(bars))
	for i := range bars {
		r := rsi[i]
		if math.IsNaN(r) {
			continue
		}
		switch {
		case macd.MACD[i] > macd.Signal[i] && macd.Histogram[i] > 0 && r > 50 && r < s.RSIOverbought:
			raw[i] = Long
		case macd.MACD[i] < macd.Signal[i] && macd.Histogram[i] < 0 && r < 50 && r > s.RSIOversold:
			raw[i] = Short
		}
	}
	frame.Signals = forwardFill(raw)
	return frame, nil
}

// CalculatePositionSize scales the base allocation between 50% and 100%
// by how far RSI sits from 50 in the signal's direction.
func (s *Momentum) CalculatePositionSize(ctx SignalContext, _ []types.OHLCV) float64 {
	rsi := ctx.Value("rsi", 50)
	var strength float64
	if ctx.Signal == Long {
		strength = (rsi - 50) / 50
	} else {
		strength = (50 - rsi) / 50
	}
	value := ctx.Capital * s.PositionSizePct * (0.5 + 0.5*strength)
	return sizeEntry(s.Sizer, ctx, value)
}
