package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateReturns produces a deterministic noisy return series
func generateReturns(n int, seed int64, drift, vol float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = drift + vol*rng.NormFloat64()
	}
	return out
}

// TestZeroVarianceRatios tests that constant series never produce NaN or Inf
func TestZeroVarianceRatios(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
	}{
		{"empty", nil},
		{"single", []float64{0.01}},
		{"all zero", []float64{0, 0, 0, 0, 0}},
		{"constant", []float64{0.01, 0.01, 0.01, 0.01}},
		{"all NaN", []float64{math.NaN(), math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0.0, SharpeRatio(tt.returns, 0, 252))
			assert.Equal(t, 0.0, SortinoRatio(tt.returns, 0, 252))
			assert.Equal(t, 0.0, Volatility(tt.returns, 252))

			for name, v := range AllMetrics(tt.returns, 0, 252).Map() {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s is not finite", name)
			}
		})
	}
}

// TestSharpeRatio tests the annualized Sharpe computation
func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, 0.0, 0.015}
	// mean 0.007, sample std 0.0185741...
	expected := math.Sqrt(252) * 0.007 / 0.01857417562100671
	assert.InDelta(t, expected, SharpeRatio(returns, 0, 252), 1e-9)

	withRF := SharpeRatio(returns, 0.05, 252)
	assert.Less(t, withRF, SharpeRatio(returns, 0, 252))

	assert.InDelta(t, SharpeRatio(returns, 0, 252), SharpeRatio(returns, 0, 0), 1e-12, "periods <= 0 defaults to 252")
}

// TestSortinoRatio tests the downside-only ratio
func TestSortinoRatio(t *testing.T) {
	t.Run("no downside", func(t *testing.T) {
		assert.Equal(t, 0.0, SortinoRatio([]float64{0.01, 0.02, 0.03}, 0, 252))
	})

	t.Run("single downside return", func(t *testing.T) {
		assert.Equal(t, 0.0, SortinoRatio([]float64{0.01, -0.02, 0.03}, 0, 252))
	})

	t.Run("positive drift", func(t *testing.T) {
		returns := []float64{0.02, -0.01, 0.03, -0.03, 0.02}
		assert.Greater(t, SortinoRatio(returns, 0, 252), 0.0)
	})
}

// TestMaxDrawdown tests drawdown bounds and a hand-computed case
func TestMaxDrawdown(t *testing.T) {
	t.Run("non-negative returns", func(t *testing.T) {
		assert.Equal(t, 0.0, MaxDrawdown([]float64{0, 0.01, 0.02, 0}))
	})

	t.Run("known path", func(t *testing.T) {
		// index: 1.1, 0.88, 0.968 -> peak 1.1, trough 0.88
		assert.InDelta(t, 0.2, MaxDrawdown([]float64{0.1, -0.2, 0.1}), 1e-12)
	})

	t.Run("bounded", func(t *testing.T) {
		for seed := int64(1); seed <= 20; seed++ {
			dd := MaxDrawdown(generateReturns(200, seed, 0, 0.03))
			assert.GreaterOrEqual(t, dd, 0.0)
			assert.LessOrEqual(t, dd, 1.0)
		}
	})
}

// TestCalmarRatio tests Calmar against its definition
func TestCalmarRatio(t *testing.T) {
	returns := []float64{0.1, -0.2, 0.1}
	expected := AnnualReturn(returns, 252) / 0.2
	assert.InDelta(t, expected, CalmarRatio(returns, 252), 1e-9)

	assert.Equal(t, 0.0, CalmarRatio([]float64{0.01, 0.02}, 252))
}

// TestAllMetrics tests that the bundle agrees with the individual functions
func TestAllMetrics(t *testing.T) {
	returns := generateReturns(500, 42, 0.0005, 0.01)
	m := AllMetrics(returns, 0.02, 252)

	assert.InDelta(t, SharpeRatio(returns, 0.02, 252), m.SharpeRatio, 1e-12)
	assert.InDelta(t, SortinoRatio(returns, 0.02, 252), m.SortinoRatio, 1e-12)
	assert.InDelta(t, MaxDrawdown(returns), m.MaxDrawdown, 1e-12)
	assert.InDelta(t, VaR(returns, 0.95), m.VaR95, 1e-12)
	assert.InDelta(t, CVaR(returns, 0.95), m.CVaR95, 1e-12)
	assert.InDelta(t, Volatility(returns, 252), m.Volatility, 1e-12)
	assert.InDelta(t, AnnualReturn(returns, 252), m.AnnualReturn, 1e-12)

	keys := m.Map()
	require.Len(t, keys, 8)
	assert.Contains(t, keys, MetricSharpeRatio)
	assert.Contains(t, keys, MetricCVaR95)
}

// TestCleanSkipsNonFinite tests that NaN and Inf are stripped before computing
func TestCleanSkipsNonFinite(t *testing.T) {
	dirty := []float64{math.NaN(), 0.01, math.Inf(1), -0.02, math.Inf(-1), 0.03}
	clean := []float64{0.01, -0.02, 0.03}

	assert.Equal(t, clean, Clean(dirty))
	assert.InDelta(t, SharpeRatio(clean, 0, 252), SharpeRatio(dirty, 0, 252), 1e-12)
	assert.InDelta(t, AnnualReturn(clean, 252), AnnualReturn(dirty, 252), 1e-12)
}

// TestDrawdownSeries tests percent-below-peak tracking
func TestDrawdownSeries(t *testing.T) {
	dd := DrawdownSeries([]float64{100, 110, 99, 121})
	require.Len(t, dd, 4)
	assert.Equal(t, 0.0, dd[0])
	assert.Equal(t, 0.0, dd[1])
	assert.InDelta(t, -10.0, dd[2], 1e-9)
	assert.Equal(t, 0.0, dd[3])

	assert.Empty(t, DrawdownSeries(nil))
}
