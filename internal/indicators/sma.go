package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SMA is the rolling arithmetic mean over period values. A window that
// contains NaN yields NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = stat.Mean(window, nil)
	}
	return out
}

// RollingStd is the rolling sample (N-1) standard deviation.
func RollingStd(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period < 2 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = stat.StdDev(window, nil)
	}
	return out
}

// ZScore measures how many rolling standard deviations each value sits from
// its rolling mean. Zero deviation yields NaN.
func ZScore(values []float64, period int) []float64 {
	mean := SMA(values, period)
	std := RollingStd(values, period)

	out := nanSeries(len(values))
	for i := range values {
		if math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (values[i] - mean[i]) / std[i]
	}
	return out
}
