package orchestrator

import (
	"context"
	"errors"

	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
)

// Orchestrator drives an IntervalRunner over every interval of a symbol
type Orchestrator struct {
	runner    IntervalRunner
	objective string
	logger    *logger.Logger
}

// NewOrchestrator creates an orchestrator that ranks intervals by objective
func NewOrchestrator(runner IntervalRunner, objective string) *Orchestrator {
	if objective == "" {
		objective = "sharpe_ratio"
	}
	return &Orchestrator{runner: runner, objective: objective, logger: logger.Nop()}
}

func (o *Orchestrator) SetLogger(l *logger.Logger) {
	if l != nil {
		o.logger = l
	}
}

// RunMultiIntervalAnalysis backtests cfg on each interval found under
// dataRoot for cfg.Backtest.Symbol. An interval that fails is kept in the
// result with its error; the run fails only when every interval does or ctx
// is cancelled.
func (o *Orchestrator) RunMultiIntervalAnalysis(ctx context.Context, cfg *config.Config, dataRoot string) (*IntervalAnalysisResult, error) {
	symbol := cfg.Backtest.Symbol
	o.logger.Info("Starting multi-interval analysis for %s", symbol)

	intervals, err := o.runner.FindAvailableIntervals(dataRoot, symbol)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Found %d intervals: %v", len(intervals), intervals)

	analysis := &IntervalAnalysisResult{Symbol: symbol, Objective: o.objective}
	bestIdx := -1
	for _, interval := range intervals {
		result, err := o.runner.RunForInterval(ctx, cfg, dataRoot, interval)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			o.logger.Error("Interval %s failed: %v", interval, err)
			monitoring.RecordError("interval")
			analysis.Results = append(analysis.Results, IntervalResult{Interval: interval, Best: -1, Error: err})
			continue
		}

		best := result.BestReport()
		o.logger.Info("Interval %s: best %s with %s %.4f", interval, best.Name(), o.objective, result.Score)
		analysis.Results = append(analysis.Results, *result)
		if bestIdx < 0 || result.Score > analysis.Results[bestIdx].Score {
			bestIdx = len(analysis.Results) - 1
		}
	}

	if bestIdx < 0 {
		return nil, qerr.New(qerr.ErrorCategoryData, component, "run_intervals", "no interval produced results for "+symbol)
	}
	analysis.BestResult = &analysis.Results[bestIdx]
	o.logger.Info("Best interval for %s: %s", symbol, analysis.BestResult.Interval)
	return analysis, nil
}
