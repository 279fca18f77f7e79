// Package risk computes performance and tail-risk statistics over return
// series. Every function is pure and maps degenerate input (empty series,
// zero variance, zero denominators) to the neutral value 0.
package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultPeriodsPerYear annualizes daily bars.
const DefaultPeriodsPerYear = 252

// zeroTolerance treats floating-point noise in a standard deviation as zero.
const zeroTolerance = 1e-10

// Clean drops NaN and infinite values, preserving order.
func Clean(returns []float64) []float64 {
	out := make([]float64, 0, len(returns))
	for _, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func periodsOrDefault(periods int) float64 {
	if periods <= 0 {
		return DefaultPeriodsPerYear
	}
	return float64(periods)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// sampleStd is the N-1 standard deviation; fewer than two points have none.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if math.IsNaN(sd) || sd < zeroTolerance {
		return 0
	}
	return sd
}

func excess(returns []float64, riskFreeRate, periods float64) []float64 {
	perPeriod := riskFreeRate / periods
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - perPeriod
	}
	return out
}
