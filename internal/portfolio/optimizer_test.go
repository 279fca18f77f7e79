package portfolio

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orthogonalAssets returns two assets with equal mean and variance and zero
// sample covariance
func orthogonalAssets(t *testing.T, mean, spread float64, cycles int) *ReturnsMatrix {
	t.Helper()
	a := []float64{1, -1, 1, -1}
	b := []float64{1, 1, -1, -1}
	rows := make([][]float64, 0, 4*cycles)
	for c := 0; c < cycles; c++ {
		for i := range a {
			rows = append(rows, []float64{mean + spread*a[i], mean + spread*b[i]})
		}
	}
	m, err := NewReturnsMatrix([]string{"A", "B"}, rows, nil)
	require.NoError(t, err)
	return m
}

// randomAssets returns correlated random returns with distinct drifts and vols
func randomAssets(t *testing.T, n int, seed int64) *ReturnsMatrix {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	drifts := []float64{0.0008, 0.0004, 0.0002, 0.0006}
	vols := []float64{0.03, 0.015, 0.01, 0.02}
	rows := make([][]float64, n)
	for i := range rows {
		market := rng.NormFloat64()
		row := make([]float64, len(drifts))
		for j := range row {
			row[j] = drifts[j] + vols[j]*(0.5*market+0.8*rng.NormFloat64())
		}
		rows[i] = row
	}
	m, err := NewReturnsMatrix([]string{"BTC", "ETH", "SOL", "XRP"}, rows, nil)
	require.NoError(t, err)
	return m
}

func assertValidWeights(t *testing.T, w Weights, lo, hi float64) {
	t.Helper()
	assert.InDelta(t, 1.0, w.Sum(), 1e-6)
	for asset, v := range w {
		assert.GreaterOrEqual(t, v, lo-1e-9, asset)
		assert.LessOrEqual(t, v, hi+1e-9, asset)
	}
}

func TestMoments(t *testing.T) {
	m := orthogonalAssets(t, 0.001, 0.01, 5)
	mu, cov := NewOptimizer(DefaultConfig()).Moments(m)

	assert.InDelta(t, 0.252, mu.AtVec(0), 1e-12)
	assert.InDelta(t, 0.252, mu.AtVec(1), 1e-12)
	assert.InDelta(t, 0.0, cov.At(0, 1), 1e-15)
	// sample variance of ±0.01 over 20 rows: 20·1e-4/19, annualized
	assert.InDelta(t, 252*20*1e-4/19, cov.At(0, 0), 1e-12)
	assert.InDelta(t, cov.At(0, 0), cov.At(1, 1), 1e-15)
}

// TestMaxSharpeSymmetricAssets tests that identical uncorrelated assets split evenly
func TestMaxSharpeSymmetricAssets(t *testing.T) {
	m := orthogonalAssets(t, 0.001, 0.01, 10)
	opt := NewOptimizer(DefaultConfig())

	res, err := opt.OptimizeMaxSharpe(m)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 0.5, res.Weights["A"], 1e-6)
	assert.InDelta(t, 0.5, res.Weights["B"], 1e-6)
	assert.InDelta(t, res.ExpectedReturn/res.Volatility, res.SharpeRatio, 1e-12)

	minVol, err := opt.OptimizeMinVolatility(m)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, minVol.Weights["A"], 1e-6)
}

// TestSingleAsset tests that one asset always gets the whole allocation
func TestSingleAsset(t *testing.T) {
	m, err := NewReturnsMatrix([]string{"ONLY"}, [][]float64{{0.01}, {-0.02}, {0.015}}, nil)
	require.NoError(t, err)
	opt := NewOptimizer(DefaultConfig())

	for _, run := range []func(*ReturnsMatrix) (*OptimizationResult, error){opt.OptimizeMaxSharpe, opt.OptimizeMinVolatility} {
		res, err := run(m)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Weights["ONLY"], 1e-9)
		assert.True(t, res.Converged)
	}

	rp, err := opt.RiskParityWeights(m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rp["ONLY"], 1e-12)
}

// TestOptimizedWeightsRespectBounds tests sum and box constraints on random data
func TestOptimizedWeightsRespectBounds(t *testing.T) {
	bounds := []struct{ lo, hi float64 }{{0, 1}, {0.05, 0.4}, {0.1, 0.3}}

	for _, b := range bounds {
		cfg := DefaultConfig()
		cfg.MinWeight, cfg.MaxWeight = b.lo, b.hi
		opt := NewOptimizer(cfg)

		for seed := int64(1); seed <= 3; seed++ {
			m := randomAssets(t, 400, seed)

			ms, err := opt.OptimizeMaxSharpe(m)
			require.NoError(t, err)
			assertValidWeights(t, ms.Weights, b.lo, b.hi)

			mv, err := opt.OptimizeMinVolatility(m)
			require.NoError(t, err)
			assertValidWeights(t, mv.Weights, b.lo, b.hi)

			// each optimum beats equal weights on its own objective
			eq := Weights{"BTC": 0.25, "ETH": 0.25, "SOL": 0.25, "XRP": 0.25}
			eqRet, eqVol, err := opt.PortfolioPerformance(eq, m)
			require.NoError(t, err)
			assert.LessOrEqual(t, mv.Volatility, eqVol+1e-9)
			assert.GreaterOrEqual(t, ms.SharpeRatio, eqRet/eqVol-1e-9)
		}
	}
}

// TestMinVolatilityPrefersQuietAsset tests the min-vol solution on a clear case
func TestMinVolatilityPrefersQuietAsset(t *testing.T) {
	m := randomAssets(t, 500, 8)
	res, err := NewOptimizer(DefaultConfig()).OptimizeMinVolatility(m)
	require.NoError(t, err)

	// SOL has the lowest volatility by construction
	assert.Greater(t, res.Weights["SOL"], res.Weights["BTC"])
	assert.Greater(t, res.Weights["SOL"], 0.3)
}

// TestInfeasibleBounds tests that impossible bounds are reported
func TestInfeasibleBounds(t *testing.T) {
	m := randomAssets(t, 100, 1)

	cfg := DefaultConfig()
	cfg.MaxWeight = 0.2 // 4 × 0.2 < 1
	_, err := NewOptimizer(cfg).OptimizeMaxSharpe(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasibleBounds))
	assert.Equal(t, qerr.ErrorCategoryOptimization, qerr.CategoryOf(err))

	cfg = DefaultConfig()
	cfg.MinWeight = 0.3 // 4 × 0.3 > 1
	_, err = NewOptimizer(cfg).OptimizeMinVolatility(m)
	assert.ErrorIs(t, err, ErrInfeasibleBounds)
}

// TestNonConvergenceIsReported tests that an iteration cap surfaces in the result
func TestNonConvergenceIsReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-300
	res, err := NewOptimizer(cfg).OptimizeMaxSharpe(randomAssets(t, 300, 4))
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.NotEmpty(t, res.Message)
	assertValidWeights(t, res.Weights, 0, 1)
}

// TestRiskParityWeights tests inverse-volatility weighting
func TestRiskParityWeights(t *testing.T) {
	m := randomAssets(t, 500, 3)
	opt := NewOptimizer(DefaultConfig())

	w, err := opt.RiskParityWeights(m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w.Sum(), 1e-12)

	_, cov := opt.Moments(m)
	for i, a := range m.Assets {
		for j, b := range m.Assets {
			if cov.At(i, i) < cov.At(j, j) {
				assert.Greater(t, w[a], w[b], "%s is less volatile than %s", a, b)
			}
		}
	}
	ratio := math.Sqrt(cov.At(1, 1)) / math.Sqrt(cov.At(0, 0))
	assert.InDelta(t, ratio, w["BTC"]/w["ETH"], 1e-9)
}

// TestRiskParityZeroVariance tests that a flat asset is an error
func TestRiskParityZeroVariance(t *testing.T) {
	for _, flat := range []float64{0, 0.01} {
		rows := [][]float64{{0.01, flat}, {-0.02, flat}, {0.03, flat}}
		m, err := NewReturnsMatrix([]string{"X", "FLAT"}, rows, nil)
		require.NoError(t, err)

		_, err = NewOptimizer(DefaultConfig()).RiskParityWeights(m)
		assert.ErrorIs(t, err, ErrZeroVariance)
		assert.Equal(t, qerr.ErrorCategoryNumeric, qerr.CategoryOf(err))
	}
}

// TestZeroVolatilityPortfolio tests Sharpe 0 when every asset is flat
func TestZeroVolatilityPortfolio(t *testing.T) {
	m, err := NewReturnsMatrix([]string{"A", "B"}, [][]float64{{0, 0}, {0, 0}, {0, 0}}, nil)
	require.NoError(t, err)

	res, err := NewOptimizer(DefaultConfig()).OptimizeMaxSharpe(m)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.SharpeRatio)
	assert.Equal(t, 0.0, res.Volatility)
	assertValidWeights(t, res.Weights, 0, 1)
}

// TestPluggableSolver tests that a custom solver is used
func TestPluggableSolver(t *testing.T) {
	opt := NewOptimizer(DefaultConfig())
	opt.SetSolver(fixedSolver{x: []float64{0.7, 0.3}})

	res, err := opt.OptimizeMinVolatility(orthogonalAssets(t, 0.001, 0.01, 3))
	require.NoError(t, err)
	assert.Equal(t, 0.7, res.Weights["A"])
	assert.Equal(t, 3, res.Iterations)
}

type fixedSolver struct{ x []float64 }

func (s fixedSolver) Solve(p Problem) (*Solution, error) {
	return &Solution{X: s.x, F: p.Objective(s.x), Iterations: 3, Converged: true}, nil
}

func TestReturnsMatrixValidation(t *testing.T) {
	_, err := NewReturnsMatrix(nil, [][]float64{{1}, {2}}, nil)
	assert.Error(t, err)

	_, err = NewReturnsMatrix([]string{"A"}, [][]float64{{0.1}}, nil)
	assert.Error(t, err)

	_, err = NewReturnsMatrix([]string{"A", "B"}, [][]float64{{0.1, 0.2}, {0.1}}, nil)
	assert.Error(t, err)

	_, err = NewReturnsMatrix([]string{"A"}, [][]float64{{0.1}, {math.NaN()}}, nil)
	assert.Error(t, err)

	_, err = NewReturnsMatrix([]string{"A", "A"}, [][]float64{{0.1, 0.1}, {0.2, 0.2}}, nil)
	assert.Error(t, err)
}

func TestReturnsFromPrices(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	series := map[string][]types.OHLCV{
		"BTC": {
			{Timestamp: day(1), Close: 100},
			{Timestamp: day(2), Close: 110},
			{Timestamp: day(3), Close: 99},
			{Timestamp: day(4), Close: 120},
		},
		"ETH": {
			{Timestamp: day(2), Close: 10},
			{Timestamp: day(3), Close: 11},
			{Timestamp: day(4), Close: 12.1},
			{Timestamp: day(5), Close: 13},
		},
	}

	m, err := ReturnsFromPrices(series)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, m.Assets)
	require.Equal(t, 2, m.Periods())
	assert.Equal(t, []time.Time{day(3), day(4)}, m.Timestamps)

	assert.InDelta(t, 99.0/110-1, m.Column(0)[0], 1e-12)
	assert.InDelta(t, 0.1, m.Column(1)[0], 1e-12)
	assert.InDelta(t, 0.1, m.Column(1)[1], 1e-12)

	_, err = ReturnsFromPrices(map[string][]types.OHLCV{"BTC": series["BTC"][:2]})
	assert.Error(t, err)
}

func TestSampleFrontier(t *testing.T) {
	m := randomAssets(t, 300, 6)
	opt := NewOptimizer(DefaultConfig())

	points := opt.SampleFrontier(m, 200, 42)
	require.Len(t, points, 200)
	for i, p := range points {
		assertValidWeights(t, p.Weights, 0, 1)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Volatility, points[i-1].Volatility)
		}
	}

	again := opt.SampleFrontier(m, 200, 42)
	assert.Equal(t, points, again)

	minVol, err := opt.OptimizeMinVolatility(m)
	require.NoError(t, err)
	assert.LessOrEqual(t, minVol.Volatility, points[0].Volatility+1e-9)
}

func TestCorrelation(t *testing.T) {
	corr := orthogonalAssets(t, 0.001, 0.01, 5).Correlation()
	require.Len(t, corr, 2)
	assert.InDelta(t, 1.0, corr[0][0], 1e-12)
	assert.InDelta(t, 0.0, corr[0][1], 1e-12)
	assert.InDelta(t, corr[0][1], corr[1][0], 1e-15)
}
