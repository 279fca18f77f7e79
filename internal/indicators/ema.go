package indicators

import "math"

// EMA is the recursive exponential moving average with alpha = 2/(span+1),
// seeded with the first non-NaN value.
func EMA(values []float64, span int) []float64 {
	out := nanSeries(len(values))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)

	initialized := false
	var last float64
	for i, v := range values {
		if math.IsNaN(v) {
			if initialized {
				out[i] = last
			}
			continue
		}
		if !initialized {
			last = v
			initialized = true
		} else {
			last = alpha*v + (1-alpha)*last
		}
		out[i] = last
	}
	return out
}
