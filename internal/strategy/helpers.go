package strategy

import (
	"math"

	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
)

// Auxiliary column names shared with sizing
const (
	ColumnVolatility     = "volatility"
	ColumnExpectedReturn = "expected_return"
)

// forwardFill holds the last nonzero signal until a different nonzero one
func forwardFill(raw []Direction) []Direction {
	out := make([]Direction, len(raw))
	held := Flat
	for i, s := range raw {
		if s != Flat {
			held = s
		}
		out[i] = held
	}
	return out
}

// bandSignals enters when |score| crosses entry and flattens once it falls
// back inside exit. Missing scores keep the held side.
func bandSignals(scores []float64, entry, exit float64) []Direction {
	out := make([]Direction, len(scores))
	held := Flat
	for i, z := range scores {
		switch {
		case math.IsNaN(z):
		case z < -entry:
			held = Long
		case z > entry:
			held = Short
		case math.Abs(z) < exit:
			held = Flat
		}
		out[i] = held
	}
	return out
}

// annualizedVolatility is the rolling std of simple returns scaled by √252
func annualizedVolatility(closes []float64, window int) []float64 {
	vol := indicators.RollingStd(indicators.PctChange(closes), window)
	scale := math.Sqrt(252)
	for i := range vol {
		vol[i] *= scale
	}
	return vol
}

// annualizedMeanReturn is the rolling mean of simple returns scaled by 252
func annualizedMeanReturn(closes []float64, window int) []float64 {
	mean := indicators.SMA(indicators.PctChange(closes), window)
	for i := range mean {
		mean[i] *= 252
	}
	return mean
}

// sizeEntry applies the configured sizer, or falls back to a value-based
// allocation. Expected return is taken in the signal's direction, so a
// short on a falling series sees a positive edge. The result carries the
// signal's sign.
func sizeEntry(s sizing.PositionSizer, ctx SignalContext, fallbackValue float64) float64 {
	if ctx.Signal == Flat || ctx.Price <= 0 {
		return 0
	}

	var qty float64
	if s != nil {
		in := sizing.InputFor(s, ctx.Capital, ctx.Price)
		if v, ok := ctx.Values[ColumnVolatility]; ok {
			in.Volatility = sizing.Float(v)
		}
		if v, ok := ctx.Values[ColumnExpectedReturn]; ok {
			in.ExpectedReturn = sizing.Float(v * ctx.Signal.Sign())
		}
		qty = s.Size(in)
	} else {
		qty = fallbackValue / ctx.Price
	}
	return math.Abs(qty) * ctx.Signal.Sign()
}
