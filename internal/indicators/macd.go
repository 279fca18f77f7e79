package indicators

// MACDResult holds the three MACD series
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the fast/slow EMA spread, its signal EMA and the histogram.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMA(line, signal)

	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = line[i] - signalLine[i]
	}

	return MACDResult{MACD: line, Signal: signalLine, Histogram: hist}
}
