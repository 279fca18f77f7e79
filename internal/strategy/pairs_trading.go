package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// PairsTrading trades the z-score of the spread y - β·x, with β re-fitted
// by OLS over a trailing window. Without a paired leg, x is the traded
// series lagged by one bar.
type PairsTrading struct {
	LookbackPeriod  int
	EntryThreshold  float64
	ExitThreshold   float64
	PositionSizePct float64
	Sizer           sizing.PositionSizer

	// Pair is the optional first leg, aligned bar-for-bar with the traded series
	Pair []types.OHLCV
}

func NewPairsTrading() *PairsTrading {
	return &PairsTrading{
		LookbackPeriod:  60,
		EntryThreshold:  2.0,
		ExitThreshold:   0.5,
		PositionSizePct: 0.4,
	}
}

func (s *PairsTrading) Name() string { return "PairsTrading" }

func (s *PairsTrading) GenerateSignals(bars []types.OHLCV) (*SignalFrame, error) {
	y := types.Closes(bars)
	var x []float64
	if s.Pair != nil {
		if len(s.Pair) != len(bars) {
			return nil, fmt.Errorf("pair leg has %d bars, traded series has %d", len(s.Pair), len(bars))
		}
		x = types.Closes(s.Pair)
	} else {
		x = indicators.Shift(y, 1)
	}

	n := len(bars)
	lb := s.LookbackPeriod
	hedgeRatio := nanFilled(n)
	spread := nanFilled(n)
	zscore := nanFilled(n)

	for i := lb; i < n; i++ {
		wx, wy := x[i-lb:i], y[i-lb:i]
		if validPairs(wx, wy) < lb {
			continue
		}
		beta, _, err := indicators.LinRegress(wx, wy)
		if err != nil {
			continue
		}
		hedgeRatio[i] = beta
		spread[i] = y[i] - beta*x[i]

		mean, std := nanMeanStd(spread[i-lb : i])
		if std > 0 && !math.IsNaN(spread[i]) {
			zscore[i] = (spread[i] - mean) / std
		}
	}

	frame := NewSignalFrame(n)
	frame.Columns["asset1"] = x
	frame.Columns["asset2"] = y
	frame.Columns["hedge_ratio"] = hedgeRatio
	frame.Columns["spread"] = spread
	frame.Columns["zscore"] = zscore
	frame.Signals = bandSignals(zscore, s.EntryThreshold, s.ExitThreshold)
	return frame, nil
}

func (s *PairsTrading) CalculatePositionSize(ctx SignalContext, _ []types.OHLCV) float64 {
	return sizeEntry(s.Sizer, ctx, ctx.Capital*s.PositionSizePct)
}

func nanFilled(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func validPairs(x, y []float64) int {
	n := 0
	for i := range x {
		if !math.IsNaN(x[i]) && !math.IsNaN(y[i]) {
			n++
		}
	}
	return n
}

// nanMeanStd returns the mean and sample std of the non-NaN values; std is
// NaN with fewer than two values.
func nanMeanStd(values []float64) (float64, float64) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(clean, nil)
}
