// Package indicators computes technical indicator series aligned to their
// input. Positions without enough history hold NaN.
package indicators

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when a series is shorter than the
// indicator's required window.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// nanSeries returns a slice of n NaN values
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// PctChange returns simple returns v[i]/v[i-1] - 1, NaN at index 0 and
// wherever the previous value is zero or missing.
func PctChange(values []float64) []float64 {
	out := nanSeries(len(values))
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(values[i]) {
			continue
		}
		out[i] = values[i]/prev - 1
	}
	return out
}

// Shift lags a series by n positions, padding the front with NaN.
func Shift(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}
