package risk

import "math"

// Metrics names used in flat metric maps
const (
	MetricSharpeRatio  = "sharpe_ratio"
	MetricSortinoRatio = "sortino_ratio"
	MetricMaxDrawdown  = "max_drawdown"
	MetricCalmarRatio  = "calmar_ratio"
	MetricVaR95        = "var_95"
	MetricCVaR95       = "cvar_95"
	MetricVolatility   = "volatility"
	MetricAnnualReturn = "annual_return"
)

// Metrics bundles the standard risk statistics of a return series
type Metrics struct {
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	VaR95        float64 `json:"var_95"`
	CVaR95       float64 `json:"cvar_95"`
	Volatility   float64 `json:"volatility"`
	AnnualReturn float64 `json:"annual_return"`
}

// Map flattens the metrics into name → value.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		MetricSharpeRatio:  m.SharpeRatio,
		MetricSortinoRatio: m.SortinoRatio,
		MetricMaxDrawdown:  m.MaxDrawdown,
		MetricCalmarRatio:  m.CalmarRatio,
		MetricVaR95:        m.VaR95,
		MetricCVaR95:       m.CVaR95,
		MetricVolatility:   m.Volatility,
		MetricAnnualReturn: m.AnnualReturn,
	}
}

// SharpeRatio is the annualized mean excess return over its standard deviation.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}
	p := periodsOrDefault(periodsPerYear)
	ex := excess(clean, riskFreeRate, p)

	sd := sampleStd(ex)
	if sd == 0 {
		return 0
	}
	return math.Sqrt(p) * mean(ex) / sd
}

// SortinoRatio replaces total volatility with the annualized standard
// deviation of negative excess returns.
func SortinoRatio(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}
	p := periodsOrDefault(periodsPerYear)
	ex := excess(clean, riskFreeRate, p)

	downside := make([]float64, 0, len(ex))
	for _, r := range ex {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideStd := math.Sqrt(p) * sampleStd(downside)
	if downsideStd == 0 {
		return 0
	}
	return math.Sqrt(p) * mean(ex) / downsideStd
}

// MaxDrawdown is the largest peak-to-trough decline of the compounded
// return index, as a non-negative fraction.
func MaxDrawdown(returns []float64) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}

	cumulative := 1.0
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, r := range clean {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// CalmarRatio is the annualized mean return over the max drawdown.
func CalmarRatio(returns []float64, periodsPerYear int) float64 {
	clean := Clean(returns)
	if len(clean) == 0 {
		return 0
	}
	maxDD := MaxDrawdown(clean)
	if maxDD == 0 {
		return 0
	}
	return AnnualReturn(clean, periodsPerYear) / maxDD
}

// Volatility is the annualized sample standard deviation.
func Volatility(returns []float64, periodsPerYear int) float64 {
	return sampleStd(Clean(returns)) * math.Sqrt(periodsOrDefault(periodsPerYear))
}

// AnnualReturn is the arithmetic mean return scaled to a year.
func AnnualReturn(returns []float64, periodsPerYear int) float64 {
	return mean(Clean(returns)) * periodsOrDefault(periodsPerYear)
}

// AllMetrics computes every statistic in one pass over the cleaned series.
func AllMetrics(returns []float64, riskFreeRate float64, periodsPerYear int) Metrics {
	clean := Clean(returns)
	return Metrics{
		SharpeRatio:  SharpeRatio(clean, riskFreeRate, periodsPerYear),
		SortinoRatio: SortinoRatio(clean, riskFreeRate, periodsPerYear),
		MaxDrawdown:  MaxDrawdown(clean),
		CalmarRatio:  CalmarRatio(clean, periodsPerYear),
		VaR95:        VaR(clean, 0.95),
		CVaR95:       CVaR(clean, 0.95),
		Volatility:   Volatility(clean, periodsPerYear),
		AnnualReturn: AnnualReturn(clean, periodsPerYear),
	}
}
