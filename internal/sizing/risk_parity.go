package sizing

import "math"

const (
	tradingDaysPerYear = 252
	// riskParityScale damps the raw inverse-volatility weight
	riskParityScale = 0.1
)

// RiskParity sizes inversely to volatility, scaled toward a target
// portfolio volatility. The position value is capital × 0.1 × √252 / vol, so
// it only fits in capital once annualized volatility reaches about 1.59;
// below that the backtester skips the entry.
type RiskParity struct {
	TargetVolatility float64
}

func NewRiskParity(targetVolatility float64) *RiskParity {
	return &RiskParity{TargetVolatility: targetVolatility}
}

func (r *RiskParity) Name() string { return "risk_parity" }

func (r *RiskParity) Size(in SizingInput) float64 {
	if in.Volatility == nil || !(*in.Volatility > 0) {
		return 0
	}
	dailyVol := *in.Volatility / math.Sqrt(tradingDaysPerYear)

	ratio := 1.0
	if in.PortfolioVolatility != nil && *in.PortfolioVolatility > 0 {
		ratio = r.TargetVolatility / *in.PortfolioVolatility
	}

	weight := (1 / dailyVol) * ratio
	return toQuantity(in.Capital*weight*riskParityScale, in.Price)
}
