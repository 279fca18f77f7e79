// Package portfolio builds mean-variance and risk-parity allocations over a
// matrix of asset returns.
package portfolio

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
)

const component = "portfolio"

// ErrZeroVariance is returned by risk parity when an asset never moves
var ErrZeroVariance = errors.New("asset has zero variance")

// varianceFloor treats rounding residue in a constant column as zero variance
const varianceFloor = 1e-18

// Optimization methods, as reported in results and metrics
const (
	MethodMaxSharpe     = "max_sharpe"
	MethodMinVolatility = "min_volatility"
	MethodRiskParity    = "risk_parity"
)

// Config holds optimizer knobs
type Config struct {
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
	MinWeight      float64 `json:"min_weight" yaml:"min_weight"`
	MaxWeight      float64 `json:"max_weight" yaml:"max_weight"`
	MaxIterations  int     `json:"max_iterations" yaml:"max_iterations"`
	Tolerance      float64 `json:"tolerance" yaml:"tolerance"`
}

// DefaultConfig returns long-only bounds and the solver defaults
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:   0,
		PeriodsPerYear: 252,
		MinWeight:      0,
		MaxWeight:      1,
		MaxIterations:  1000,
		Tolerance:      1e-9,
	}
}

// Weights maps asset name to portfolio weight
type Weights map[string]float64

// Sum returns the total weight
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// OptimizationResult is an optimized allocation and its annualized statistics
type OptimizationResult struct {
	Method         string  `json:"method"`
	Weights        Weights `json:"weights"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	Converged      bool    `json:"converged"`
	Iterations     int     `json:"iterations"`
	Message        string  `json:"message,omitempty"`
}

// Optimizer computes allocations. It is stateless between calls.
type Optimizer struct {
	config Config
	solver Solver
	logger *logger.Logger
}

func NewOptimizer(config Config) *Optimizer {
	if config.PeriodsPerYear <= 0 {
		config.PeriodsPerYear = 252
	}
	return &Optimizer{
		config: config,
		solver: NewProjectedGradient(config.MaxIterations, config.Tolerance),
		logger: logger.Nop(),
	}
}

// SetSolver replaces the default projected-gradient solver
func (o *Optimizer) SetSolver(s Solver) {
	o.solver = s
}

func (o *Optimizer) SetLogger(l *logger.Logger) {
	if l != nil {
		o.logger = l
	}
}

func (o *Optimizer) Config() Config {
	return o.config
}

// Moments returns annualized expected returns and the annualized sample
// covariance matrix.
func (o *Optimizer) Moments(m *ReturnsMatrix) (*mat.VecDense, *mat.SymDense) {
	p := float64(o.config.PeriodsPerYear)
	n := m.NumAssets()

	mu := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		mu.SetVec(j, stat.Mean(m.Column(j), nil)*p)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, m.Matrix(), nil)
	cov.ScaleSym(p, &cov)
	return mu, &cov
}

// PortfolioPerformance returns the annualized return and volatility of w
func (o *Optimizer) PortfolioPerformance(w Weights, m *ReturnsMatrix) (float64, float64, error) {
	x := make([]float64, m.NumAssets())
	for j, a := range m.Assets {
		v, ok := w[a]
		if !ok {
			return 0, 0, qerr.NewValidationError(component, "performance", fmt.Sprintf("no weight for %s", a))
		}
		x[j] = v
	}
	mu, cov := o.Moments(m)
	ret, vol := performance(x, mu, cov)
	return ret, vol, nil
}

// OptimizeMaxSharpe maximizes (wᵀμ - rf)/√(wᵀΣw) from equal weights.
func (o *Optimizer) OptimizeMaxSharpe(m *ReturnsMatrix) (*OptimizationResult, error) {
	mu, cov := o.Moments(m)
	rf := o.config.RiskFreeRate
	n := m.NumAssets()
	sigmaW := mat.NewVecDense(n, nil)

	objective := func(x []float64) float64 {
		ret, vol := performance(x, mu, cov)
		if vol == 0 {
			return 0
		}
		return -(ret - rf) / vol
	}
	gradient := func(grad, x []float64) {
		w := mat.NewVecDense(n, x)
		sigmaW.MulVec(cov, w)
		ret, vol := performance(x, mu, cov)
		if vol == 0 {
			for i := range grad {
				grad[i] = 0
			}
			return
		}
		excess := ret - rf
		v3 := vol * vol * vol
		for i := range grad {
			grad[i] = -(mu.AtVec(i)/vol - excess*sigmaW.AtVec(i)/v3)
		}
	}

	return o.solve(MethodMaxSharpe, m, mu, cov, objective, gradient)
}

// OptimizeMinVolatility minimizes √(wᵀΣw) from equal weights.
func (o *Optimizer) OptimizeMinVolatility(m *ReturnsMatrix) (*OptimizationResult, error) {
	mu, cov := o.Moments(m)
	n := m.NumAssets()
	sigmaW := mat.NewVecDense(n, nil)

	objective := func(x []float64) float64 {
		_, vol := performance(x, mu, cov)
		return vol
	}
	gradient := func(grad, x []float64) {
		w := mat.NewVecDense(n, x)
		sigmaW.MulVec(cov, w)
		_, vol := performance(x, mu, cov)
		for i := range grad {
			if vol == 0 {
				grad[i] = 0
				continue
			}
			grad[i] = sigmaW.AtVec(i) / vol
		}
	}

	return o.solve(MethodMinVolatility, m, mu, cov, objective, gradient)
}

// RiskParityWeights weights each asset by inverse volatility from the
// covariance diagonal. This is not an equal-risk-contribution solve.
func (o *Optimizer) RiskParityWeights(m *ReturnsMatrix) (Weights, error) {
	_, cov := o.Moments(m)

	inv := make([]float64, m.NumAssets())
	for j, a := range m.Assets {
		variance := cov.At(j, j)
		if variance <= varianceFloor || math.IsNaN(variance) {
			monitoring.RecordError("zero_variance")
			return nil, qerr.Wrap(ErrZeroVariance, qerr.ErrorCategoryNumeric, component, MethodRiskParity).
				WithContext("asset", a)
		}
		inv[j] = 1 / math.Sqrt(variance)
	}
	floats.Scale(1/floats.Sum(inv), inv)

	monitoring.RecordOptimization(MethodRiskParity, 0, true)
	return toWeights(m.Assets, inv), nil
}

func (o *Optimizer) solve(method string, m *ReturnsMatrix, mu *mat.VecDense, cov *mat.SymDense,
	objective func([]float64) float64, gradient func(grad, x []float64)) (*OptimizationResult, error) {

	n := m.NumAssets()
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1 / float64(n)
	}

	sol, err := o.solver.Solve(Problem{
		Objective: objective,
		Gradient:  gradient,
		Initial:   initial,
		Lower:     o.config.MinWeight,
		Upper:     o.config.MaxWeight,
		Sum:       1,
	})
	if err != nil {
		monitoring.RecordError("optimization")
		return nil, qerr.NewOptimizationError(component, method, err).
			WithContext("min_weight", o.config.MinWeight).
			WithContext("max_weight", o.config.MaxWeight).
			WithContext("assets", n)
	}

	ret, vol := performance(sol.X, mu, cov)
	result := &OptimizationResult{
		Method:         method,
		Weights:        toWeights(m.Assets, sol.X),
		ExpectedReturn: ret,
		Volatility:     vol,
		Converged:      sol.Converged,
		Iterations:     sol.Iterations,
		Message:        sol.Message,
	}
	if vol > 0 {
		result.SharpeRatio = (ret - o.config.RiskFreeRate) / vol
	}

	monitoring.RecordOptimization(method, sol.Iterations, sol.Converged)
	if !sol.Converged {
		o.logger.Warning("%s did not converge after %d iterations: %s", method, sol.Iterations, sol.Message)
	} else {
		o.logger.Info("%s converged in %d iterations: return %.4f, volatility %.4f", method, sol.Iterations, ret, vol)
	}
	return result, nil
}

// performance returns (wᵀμ, √(wᵀΣw))
func performance(x []float64, mu *mat.VecDense, cov *mat.SymDense) (float64, float64) {
	w := mat.NewVecDense(len(x), x)
	ret := mat.Dot(w, mu)
	variance := mat.Inner(w, cov, w)
	if variance < 0 {
		variance = 0
	}
	return ret, math.Sqrt(variance)
}

func toWeights(assets []string, x []float64) Weights {
	w := make(Weights, len(assets))
	for j, a := range assets {
		w[a] = x[j]
	}
	return w
}
