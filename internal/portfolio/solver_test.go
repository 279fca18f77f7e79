package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name     string
		y        []float64
		lo, hi   float64
		expected []float64
	}{
		{"already feasible", []float64{0.2, 0.3, 0.5}, 0, 1, []float64{0.2, 0.3, 0.5}},
		{"shift down", []float64{1, 1}, 0, 1, []float64{0.5, 0.5}},
		{"clip negative", []float64{2, -1}, 0, 1, []float64{1, 0}},
		{"upper bound binds", []float64{5, 0, 0}, 0, 0.5, []float64{0.5, 0.25, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project(tt.y, tt.lo, tt.hi, 1)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.InDelta(t, tt.expected[i], got[i], 1e-9)
			}
		})
	}
}

// TestProjectedGradientQuadratic tests a problem with a known interior optimum
func TestProjectedGradientQuadratic(t *testing.T) {
	// minimize (x0-0.7)² + (x1-0.3)² + x2² on the simplex: optimum (0.7, 0.3, 0)
	target := []float64{0.7, 0.3, 0}
	objective := func(x []float64) float64 {
		var s float64
		for i := range x {
			d := x[i] - target[i]
			s += d * d
		}
		return s
	}

	for _, withGradient := range []bool{true, false} {
		p := Problem{
			Objective: objective,
			Initial:   []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
			Lower:     0,
			Upper:     1,
			Sum:       1,
		}
		if withGradient {
			p.Gradient = func(grad, x []float64) {
				for i := range x {
					grad[i] = 2 * (x[i] - target[i])
				}
			}
		}

		sol, err := NewProjectedGradient(1000, 1e-9).Solve(p)
		require.NoError(t, err)
		assert.True(t, sol.Converged, sol.Message)
		for i := range target {
			assert.InDelta(t, target[i], sol.X[i], 1e-5)
		}
	}
}

func TestProjectedGradientInfeasible(t *testing.T) {
	p := Problem{
		Objective: func(x []float64) float64 { return 0 },
		Initial:   []float64{0.5, 0.5},
		Lower:     0.6,
		Upper:     1,
		Sum:       1,
	}
	_, err := NewProjectedGradient(10, 1e-9).Solve(p)
	assert.ErrorIs(t, err, ErrInfeasibleBounds)

	p.Initial = nil
	_, err = NewProjectedGradient(10, 1e-9).Solve(p)
	assert.Error(t, err)
}
