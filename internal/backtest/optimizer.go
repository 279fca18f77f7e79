package backtest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// ParameterGrid maps a strategy parameter name to the values to try
type ParameterGrid map[string][]float64

// SweepResult is one parameter combination and its outcome
type SweepResult struct {
	Parameters map[string]float64
	Metrics    *PerformanceMetrics
	Score      float64
	Error      error
}

// ParameterSweep backtests every combination of a strategy's parameters
// and ranks them by one performance metric.
type ParameterSweep struct {
	Base      strategy.Config
	Grid      ParameterGrid
	Config    Config
	Objective string
	Workers   int
	Logger    *logger.Logger
}

// Combinations expands the grid in sorted key order
func (g ParameterGrid) Combinations() []map[string]float64 {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]float64{{}}
	for _, k := range keys {
		next := make([]map[string]float64, 0, len(combos)*len(g[k]))
		for _, c := range combos {
			for _, v := range g[k] {
				m := make(map[string]float64, len(c)+1)
				for ck, cv := range c {
					m[ck] = cv
				}
				m[k] = v
				next = append(next, m)
			}
		}
		combos = next
	}
	return combos
}

// Run executes the sweep. Results are ordered best first; combinations that
// failed or produced no metrics sort last.
func (s *ParameterSweep) Run(ctx context.Context, bars []types.OHLCV, column string) ([]SweepResult, error) {
	objective := s.Objective
	if objective == "" {
		objective = "sharpe_ratio"
	}

	combos := s.Grid.Combinations()
	jobs := make([]Job, 0, len(combos))
	for i, params := range combos {
		cfg := s.Base
		cfg.Parameters = mergeParams(s.Base.Parameters, params)
		strat, err := strategy.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("combination %d: %w", i, err)
		}
		jobs = append(jobs, Job{
			ID:       fmt.Sprintf("%s_%d", strat.Name(), i),
			Strategy: strat,
			Config:   s.Config,
			Bars:     bars,
			Column:   column,
		})
	}

	batch, err := RunBatch(ctx, jobs, s.Workers, s.Logger)

	out := make([]SweepResult, len(batch))
	for i, r := range batch {
		out[i] = SweepResult{Parameters: combos[i], Metrics: r.Metrics, Error: r.Error, Score: math.Inf(-1)}
		if r.Metrics != nil {
			if v, ok := r.Metrics.Map()[objective]; ok {
				out[i].Score = v
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, err
}

func mergeParams(base, override map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
