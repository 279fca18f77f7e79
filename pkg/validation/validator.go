package validation

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

const (
	component = "validation"

	// degradation thresholds in percent of the train return
	moderateDegradation = 15
	highDegradation     = 30
)

// Searcher ranks parameter sets for a strategy on a window of bars, best
// first. Both the grid sweep and the genetic optimizer satisfy it.
type Searcher interface {
	Run(ctx context.Context, bars []types.OHLCV, column string) ([]backtest.SweepResult, error)
}

// WalkForwardValidator optimizes on each train window and replays the
// winning parameters on the following test window
type WalkForwardValidator struct {
	splitter DataSplitter
	search   Searcher
	base     strategy.Config
	config   backtest.Config
	column   string
	logger   *logger.Logger
}

// NewWalkForwardValidator validates search results for base, backtested
// with cfg on the given price column
func NewWalkForwardValidator(search Searcher, base strategy.Config, cfg backtest.Config, column string) *WalkForwardValidator {
	return &WalkForwardValidator{
		splitter: NewTimeSplitter(),
		search:   search,
		base:     base,
		config:   cfg,
		column:   column,
		logger:   logger.Nop(),
	}
}

func (v *WalkForwardValidator) SetLogger(l *logger.Logger) {
	if l != nil {
		v.logger = l
	}
}

// Validate runs a holdout split or rolling folds depending on cfg.Rolling
func (v *WalkForwardValidator) Validate(ctx context.Context, data []types.OHLCV, cfg WalkForwardConfig) (*WalkForwardSummary, error) {
	var folds []WalkForwardFold
	if cfg.Rolling {
		v.logger.Info("Walk-forward: rolling train %dd, test %dd, roll %dd", cfg.TrainDays, cfg.TestDays, cfg.RollDays)
		folds = v.splitter.CreateRollingFolds(data, cfg.TrainDays, cfg.TestDays, cfg.RollDays)
	} else {
		v.logger.Info("Walk-forward: holdout %.0f%% train, %.0f%% test", cfg.SplitRatio*100, (1-cfg.SplitRatio)*100)
		train, test := v.splitter.SplitByRatio(data, cfg.SplitRatio)
		if len(train) >= minTrainBars && len(test) >= minTestBars {
			folds = []WalkForwardFold{{
				Train:      train,
				Test:       test,
				TrainStart: train[0].Timestamp,
				TrainEnd:   train[len(train)-1].Timestamp,
				TestStart:  test[0].Timestamp,
				TestEnd:    test[len(test)-1].Timestamp,
			}}
		}
	}
	if len(folds) == 0 {
		return nil, qerr.NewValidationError(component, "validate",
			fmt.Sprintf("not enough data for walk-forward validation (%d bars)", len(data)))
	}

	results := make([]FoldResult, 0, len(folds))
	for i, fold := range folds {
		r, err := v.runFold(ctx, i+1, fold)
		if err != nil {
			return nil, err
		}
		v.logger.Info("Fold %d/%d %s → %s: train %.2f%%, test %.2f%%", i+1, len(folds),
			fold.TrainStart.Format("2006-01-02"), fold.TestEnd.Format("2006-01-02"),
			r.TrainMetrics.TotalReturn, r.TestMetrics.TotalReturn)
		results = append(results, r)
	}

	summary := Summarize(results)
	if !summary.IsRobust {
		v.logger.Warning("Walk-forward return degradation %.1f%% (%s overfitting risk)", summary.ReturnDegradation, summary.OverfittingRisk)
	}
	return summary, nil
}

func (v *WalkForwardValidator) runFold(ctx context.Context, n int, fold WalkForwardFold) (FoldResult, error) {
	ranked, err := v.search.Run(ctx, fold.Train, v.column)
	if err != nil {
		return FoldResult{}, qerr.Wrap(err, qerr.ErrorCategoryOptimization, component, "run_fold").WithContext("fold", n)
	}
	if len(ranked) == 0 || ranked[0].Metrics == nil {
		return FoldResult{}, qerr.New(qerr.ErrorCategoryOptimization, component, "run_fold",
			"no parameter combination produced metrics").WithContext("fold", n)
	}
	best := ranked[0]

	cfg := v.base
	cfg.Parameters = make(map[string]float64, len(v.base.Parameters)+len(best.Parameters))
	for k, val := range v.base.Parameters {
		cfg.Parameters[k] = val
	}
	for k, val := range best.Parameters {
		cfg.Parameters[k] = val
	}
	strat, err := strategy.New(cfg)
	if err != nil {
		return FoldResult{}, qerr.Wrap(err, qerr.ErrorCategoryConfiguration, component, "run_fold")
	}

	bt := backtest.NewBacktester(strat, v.config)
	bt.SetLogger(v.logger)
	res, err := bt.Run(fold.Test, v.column)
	if err != nil {
		return FoldResult{}, err
	}
	test := bt.PerformanceMetrics(res)
	if test == nil {
		test = &backtest.PerformanceMetrics{}
	}

	return FoldResult{
		Fold:         n,
		TrainStart:   fold.TrainStart,
		TestEnd:      fold.TestEnd,
		Parameters:   best.Parameters,
		TrainMetrics: best.Metrics,
		TestMetrics:  test,
	}, nil
}

// Summarize averages fold metrics and grades overfitting by how much of the
// train return is lost out of sample
func Summarize(results []FoldResult) *WalkForwardSummary {
	if len(results) == 0 {
		return &WalkForwardSummary{}
	}

	trainReturns := make([]float64, len(results))
	testReturns := make([]float64, len(results))
	trainDrawdowns := make([]float64, len(results))
	testDrawdowns := make([]float64, len(results))
	for i, r := range results {
		trainReturns[i] = r.TrainMetrics.TotalReturn
		testReturns[i] = r.TestMetrics.TotalReturn
		trainDrawdowns[i] = r.TrainMetrics.MaxDrawdown * 100
		testDrawdowns[i] = r.TestMetrics.MaxDrawdown * 100
	}

	s := &WalkForwardSummary{
		Results:              results,
		AverageTrainReturn:   stat.Mean(trainReturns, nil),
		AverageTestReturn:    stat.Mean(testReturns, nil),
		AverageTrainDrawdown: stat.Mean(trainDrawdowns, nil),
		AverageTestDrawdown:  stat.Mean(testDrawdowns, nil),
	}
	if len(results) > 1 {
		s.TrainReturnStdDev = stat.StdDev(trainReturns, nil)
		s.TestReturnStdDev = stat.StdDev(testReturns, nil)
	}

	s.ReturnDegradation = (s.AverageTrainReturn - s.AverageTestReturn) / math.Max(0.01, math.Abs(s.AverageTrainReturn)) * 100
	switch {
	case s.ReturnDegradation > highDegradation:
		s.OverfittingRisk = "HIGH"
	case s.ReturnDegradation > moderateDegradation:
		s.OverfittingRisk = "MODERATE"
	default:
		s.OverfittingRisk = "LOW"
	}
	s.IsRobust = s.ReturnDegradation <= highDegradation
	return s
}
