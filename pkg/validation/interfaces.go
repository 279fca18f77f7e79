// Package validation provides walk-forward validation of parameter sweeps
package validation

import (
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// DataSplitter splits bars into train/test sets
type DataSplitter interface {
	SplitByRatio(data []types.OHLCV, ratio float64) ([]types.OHLCV, []types.OHLCV)
	CreateRollingFolds(data []types.OHLCV, trainDays, testDays, rollDays int) []WalkForwardFold
}

// WalkForwardConfig holds the configuration for walk-forward validation
type WalkForwardConfig struct {
	Rolling    bool
	SplitRatio float64
	TrainDays  int
	TestDays   int
	RollDays   int
}

// DefaultWalkForwardConfig is a 70/30 holdout
func DefaultWalkForwardConfig() WalkForwardConfig {
	return WalkForwardConfig{
		SplitRatio: 0.7,
		TrainDays:  180,
		TestDays:   60,
		RollDays:   30,
	}
}

// WalkForwardFold represents a single fold in walk-forward validation
type WalkForwardFold struct {
	Train      []types.OHLCV
	Test       []types.OHLCV
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// FoldResult is the best in-sample parameter set of one fold and how it
// did out of sample
type FoldResult struct {
	Fold         int
	TrainStart   time.Time
	TestEnd      time.Time
	Parameters   map[string]float64
	TrainMetrics *backtest.PerformanceMetrics
	TestMetrics  *backtest.PerformanceMetrics
}

// WalkForwardSummary aggregates all folds. Returns and drawdowns are in percent.
type WalkForwardSummary struct {
	Results              []FoldResult
	AverageTrainReturn   float64
	AverageTestReturn    float64
	TrainReturnStdDev    float64
	TestReturnStdDev     float64
	AverageTrainDrawdown float64
	AverageTestDrawdown  float64
	ReturnDegradation    float64
	IsRobust             bool
	OverfittingRisk      string
}
