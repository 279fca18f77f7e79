package indicators

import (
	"math"

	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|); the first
// bar has no previous close and uses high-low.
func TrueRange(bars []types.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
		}
		out[i] = tr
	}
	return out
}

// ATR is the simple rolling mean of the true range.
func ATR(bars []types.OHLCV, period int) []float64 {
	return SMA(TrueRange(bars), period)
}
