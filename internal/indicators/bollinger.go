package indicators

// BollingerBands holds the middle band and the bands k deviations away
type BollingerBands struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger computes bands at k rolling sample standard deviations.
func Bollinger(prices []float64, period int, k float64) BollingerBands {
	middle := SMA(prices, period)
	std := RollingStd(prices, period)

	upper := make([]float64, len(prices))
	lower := make([]float64, len(prices))
	for i := range prices {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return BollingerBands{Middle: middle, Upper: upper, Lower: lower}
}
