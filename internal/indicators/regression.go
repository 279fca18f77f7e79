package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// LinRegress fits y = intercept + slope·x by ordinary least squares, skipping
// pairs where either side is NaN. It needs at least two points with
// non-constant x.
func LinRegress(x, y []float64) (slope, intercept float64, err error) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := 0; i < len(x) && i < len(y); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return 0, 0, ErrInsufficientData
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	return slope, intercept, nil
}
