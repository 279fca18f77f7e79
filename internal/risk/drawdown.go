package risk

// DrawdownSeries returns, for each equity point, its percentage distance
// below the running maximum (0 at new highs, negative otherwise).
func DrawdownSeries(equity []float64) []float64 {
	out := make([]float64, len(equity))
	runningMax := 0.0
	for i, v := range equity {
		if i == 0 || v > runningMax {
			runningMax = v
		}
		if runningMax == 0 {
			continue
		}
		out[i] = (v - runningMax) / runningMax * 100
	}
	return out
}
