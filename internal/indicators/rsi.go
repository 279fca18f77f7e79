package indicators

import "math"

// RSI is the Relative Strength Index using simple rolling averages of gains
// and losses. The first bar contributes no change.
func RSI(prices []float64, period int) []float64 {
	n := len(prices)
	out := nanSeries(n)
	if period <= 0 || n == 0 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case l == 0 && g == 0:
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}
