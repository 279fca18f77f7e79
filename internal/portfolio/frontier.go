package portfolio

import (
	"math/rand"
	"sort"
)

// FrontierPoint is one sampled allocation
type FrontierPoint struct {
	Weights        Weights `json:"weights"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// SampleFrontier draws n random long-only portfolios with a seeded source,
// sorted by volatility.
func (o *Optimizer) SampleFrontier(m *ReturnsMatrix, n int, seed int64) []FrontierPoint {
	mu, cov := o.Moments(m)
	rng := rand.New(rand.NewSource(seed))
	k := m.NumAssets()

	points := make([]FrontierPoint, 0, n)
	for i := 0; i < n; i++ {
		x := make([]float64, k)
		var sum float64
		for j := range x {
			x[j] = rng.Float64()
			sum += x[j]
		}
		if sum == 0 {
			continue
		}
		for j := range x {
			x[j] /= sum
		}

		ret, vol := performance(x, mu, cov)
		p := FrontierPoint{Weights: toWeights(m.Assets, x), ExpectedReturn: ret, Volatility: vol}
		if vol > 0 {
			p.SharpeRatio = (ret - o.config.RiskFreeRate) / vol
		}
		points = append(points, p)
	}

	sort.SliceStable(points, func(a, b int) bool { return points[a].Volatility < points[b].Volatility })
	return points
}
