package indicators

import "github.com/ducminhle1904/quant-backtester/internal/risk"

// RollingQuantile is the rolling q-quantile (0..1) with linear
// interpolation. Windows containing NaN yield NaN.
func RollingQuantile(values []float64, window int, q float64) []float64 {
	out := nanSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		w := values[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = risk.Percentile(w, q*100)
	}
	return out
}
