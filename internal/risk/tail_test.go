package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPercentile tests linear interpolation between closest ranks
func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{3}, 10, 3},
		{"median odd", []float64{3, 1, 2}, 50, 2},
		{"interpolated", []float64{1, 2, 3, 4}, 25, 1.75},
		{"min", []float64{4, 2, 9}, 0, 2},
		{"max", []float64{4, 2, 9}, 100, 9},
		{"clamped", []float64{4, 2, 9}, 150, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Percentile(tt.values, tt.p), 1e-12)
		})
	}
}

// TestPercentileDoesNotMutate tests that the input order is preserved
func TestPercentileDoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 50)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

// TestVaRAndCVaR tests the historical tail estimates on a known series
func TestVaRAndCVaR(t *testing.T) {
	returns := []float64{-0.05, -0.03, -0.01, 0.0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06}

	// rank 0.45 between -0.05 and -0.03
	assert.InDelta(t, 0.041, VaR(returns, 0.95), 1e-12)
	// only -0.05 lies at or below -0.041
	assert.InDelta(t, 0.05, CVaR(returns, 0.95), 1e-12)
}

// TestTailRiskProperties tests non-negativity and CVaR >= VaR on random series
func TestTailRiskProperties(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		returns := generateReturns(250, seed, 0.0002, 0.02)
		for _, c := range []float64{0.9, 0.95, 0.99} {
			v := VaR(returns, c)
			cv := CVaR(returns, c)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.GreaterOrEqual(t, cv, 0.0)
			assert.GreaterOrEqual(t, cv+1e-12, v, "seed %d confidence %.2f", seed, c)
		}
	}
}

// TestCVaREmptyTailFallsBack tests the fallback when no return reaches -VaR
func TestCVaREmptyTailFallsBack(t *testing.T) {
	// all gains: VaR is the absolute low percentile, nothing sits below its negation
	returns := []float64{0.01, 0.02, 0.03, 0.04}
	assert.InDelta(t, VaR(returns, 0.95), CVaR(returns, 0.95), 1e-12)
	assert.Equal(t, 0.0, VaR(nil, 0.95))
	assert.Equal(t, 0.0, CVaR(nil, 0.95))
}
