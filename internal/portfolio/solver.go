package portfolio

import (
	"errors"
	"math"
)

// ErrInfeasibleBounds is returned when no weight vector summing to the
// target fits inside the box bounds.
var ErrInfeasibleBounds = errors.New("weight bounds cannot satisfy the sum constraint")

// Problem is a smooth minimization over the box-bounded hyperplane
// {x : Σx = Sum, Lower ≤ x_i ≤ Upper}.
type Problem struct {
	Objective func(x []float64) float64
	// Gradient writes ∇f(x) into grad; nil uses central differences
	Gradient func(grad, x []float64)
	Initial  []float64
	Lower    float64
	Upper    float64
	Sum      float64
}

// Solution is the solver's final point
type Solution struct {
	X          []float64
	F          float64
	Iterations int
	Converged  bool
	Message    string
}

// Solver minimizes a Problem
type Solver interface {
	Solve(p Problem) (*Solution, error)
}

// ProjectedGradient is projected gradient descent with Armijo backtracking.
// It stops when the projected gradient step falls below Tolerance.
type ProjectedGradient struct {
	MaxIterations int
	Tolerance     float64
}

const (
	armijoC        = 1e-4
	minStep        = 1e-16
	maxStep        = 1e6
	bisectionSteps = 200
)

func NewProjectedGradient(maxIterations int, tolerance float64) *ProjectedGradient {
	return &ProjectedGradient{MaxIterations: maxIterations, Tolerance: tolerance}
}

func (s *ProjectedGradient) Solve(p Problem) (*Solution, error) {
	n := len(p.Initial)
	if n == 0 {
		return nil, errors.New("empty problem")
	}
	if p.Lower > p.Upper || float64(n)*p.Upper < p.Sum-1e-12 || float64(n)*p.Lower > p.Sum+1e-12 {
		return nil, ErrInfeasibleBounds
	}

	gradient := p.Gradient
	if gradient == nil {
		gradient = centralDifference(p.Objective)
	}

	x := project(p.Initial, p.Lower, p.Upper, p.Sum)
	f := p.Objective(x)
	grad := make([]float64, n)
	trial := make([]float64, n)
	step := 1.0

	for iter := 0; iter < s.MaxIterations; iter++ {
		gradient(grad, x)

		for i := range trial {
			trial[i] = x[i] - grad[i]
		}
		if maxAbsDiff(x, project(trial, p.Lower, p.Upper, p.Sum)) < s.Tolerance {
			return &Solution{X: x, F: f, Iterations: iter, Converged: true, Message: "projected gradient below tolerance"}, nil
		}

		var next []float64
		var fNext float64
		accepted := false
		for step >= minStep {
			for i := range trial {
				trial[i] = x[i] - step*grad[i]
			}
			next = project(trial, p.Lower, p.Upper, p.Sum)
			fNext = p.Objective(next)

			var decrease float64
			for i := range next {
				decrease += grad[i] * (next[i] - x[i])
			}
			if fNext <= f+armijoC*decrease {
				accepted = true
				break
			}
			step *= 0.5
		}
		if !accepted {
			return &Solution{X: x, F: f, Iterations: iter, Converged: false, Message: "line search failed to find a decrease"}, nil
		}

		moved := maxAbsDiff(x, next)
		change := math.Abs(f - fNext)
		x, f = next, fNext
		if moved < s.Tolerance && change <= s.Tolerance*(1+math.Abs(f)) {
			return &Solution{X: x, F: f, Iterations: iter + 1, Converged: true, Message: "step and objective change below tolerance"}, nil
		}
		step = math.Min(step*2, maxStep)
	}

	return &Solution{X: x, F: f, Iterations: s.MaxIterations, Converged: false, Message: "iteration limit reached"}, nil
}

// project returns the Euclidean projection of y onto the bounded hyperplane.
// The solution is clip(y_i - λ, lo, hi) with λ found by bisection.
func project(y []float64, lo, hi, sum float64) []float64 {
	out := make([]float64, len(y))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range y {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	total := func(lambda float64) float64 {
		var s float64
		for _, v := range y {
			s += clamp(v-lambda, lo, hi)
		}
		return s
	}

	// total is non-increasing in λ: all hi at lamLo, all lo at lamHi
	lamLo, lamHi := minY-hi, maxY-lo
	for i := 0; i < bisectionSteps; i++ {
		mid := 0.5 * (lamLo + lamHi)
		if total(mid) > sum {
			lamLo = mid
		} else {
			lamHi = mid
		}
		if lamHi-lamLo < 1e-15*(1+math.Abs(mid)) {
			break
		}
	}

	lambda := 0.5 * (lamLo + lamHi)
	for i, v := range y {
		out[i] = clamp(v-lambda, lo, hi)
	}
	return out
}

func centralDifference(f func([]float64) float64) func(grad, x []float64) {
	return func(grad, x []float64) {
		probe := append([]float64(nil), x...)
		for i := range x {
			h := 1e-6 * math.Max(1, math.Abs(x[i]))
			probe[i] = x[i] + h
			up := f(probe)
			probe[i] = x[i] - h
			down := f(probe)
			probe[i] = x[i]
			grad[i] = (up - down) / (2 * h)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func maxAbsDiff(a, b []float64) float64 {
	var m float64
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}
