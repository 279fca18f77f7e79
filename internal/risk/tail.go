package risk

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between closest ranks. Empty input yields 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// VaR is the historical Value at Risk at the given confidence level,
// reported as a non-negative loss magnitude.
func VaR(returns []float64, confidence float64) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}
	return math.Abs(Percentile(clean, (1-confidence)*100))
}

// CVaR is the expected shortfall: the mean of returns at or below -VaR.
// An empty tail falls back to VaR.
func CVaR(returns []float64, confidence float64) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}

	v := VaR(clean, confidence)
	threshold := -v
	var sum float64
	var n int
	for _, r := range clean {
		if r <= threshold {
			sum += r
			n++
		}
	}
	if n == 0 {
		return v
	}
	return math.Abs(sum / float64(n))
}
