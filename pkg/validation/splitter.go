package validation

import (
	"sort"
	"time"

	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Minimum fold sizes
const (
	minTrainBars = 50
	minTestBars  = 10
)

const day = 24 * time.Hour

// TimeSplitter cuts time-ordered bars into train/test sets
type TimeSplitter struct{}

func NewTimeSplitter() *TimeSplitter {
	return &TimeSplitter{}
}

// SplitByRatio puts the leading ratio share of bars in train. A ratio
// outside (0, 1), or one that leaves either side empty, keeps everything as
// train.
func (TimeSplitter) SplitByRatio(data []types.OHLCV, ratio float64) ([]types.OHLCV, []types.OHLCV) {
	cut := int(float64(len(data)) * ratio)
	if ratio <= 0 || ratio >= 1 || cut < 1 || cut >= len(data) {
		return data, nil
	}
	return data[:cut], data[cut:]
}

// CreateRollingFolds lays a trainDays window followed by a testDays window
// over the bars, stepping the start forward by rollDays. It stops at the
// first fold with fewer than minTrainBars or minTestBars bars.
func (TimeSplitter) CreateRollingFolds(data []types.OHLCV, trainDays, testDays, rollDays int) []WalkForwardFold {
	if trainDays <= 0 || testDays <= 0 || rollDays <= 0 || len(data) < minTrainBars+minTestBars {
		return nil
	}

	var folds []WalkForwardFold
	for lo := 0; lo < len(data); {
		origin := data[lo].Timestamp
		mid := indexAt(data, lo, origin.Add(time.Duration(trainDays)*day))
		hi := indexAt(data, mid, origin.Add(time.Duration(trainDays+testDays)*day))
		if mid-lo < minTrainBars || hi-mid < minTestBars {
			break
		}

		folds = append(folds, WalkForwardFold{
			Train:      data[lo:mid],
			Test:       data[mid:hi],
			TrainStart: origin,
			TrainEnd:   data[mid-1].Timestamp,
			TestStart:  data[mid].Timestamp,
			TestEnd:    data[hi-1].Timestamp,
		})

		next := indexAt(data, lo, origin.Add(time.Duration(rollDays)*day))
		lo = max(next, lo+1)
	}
	return folds
}

// indexAt is the first index at or after from whose bar is not before t
func indexAt(data []types.OHLCV, from int, t time.Time) int {
	return from + sort.Search(len(data)-from, func(i int) bool {
		return !data[from+i].Timestamp.Before(t)
	})
}

// SplitByRatio splits with the default TimeSplitter
func SplitByRatio(data []types.OHLCV, ratio float64) ([]types.OHLCV, []types.OHLCV) {
	return TimeSplitter{}.SplitByRatio(data, ratio)
}

// CreateRollingFolds builds folds with the default TimeSplitter
func CreateRollingFolds(data []types.OHLCV, trainDays, testDays, rollDays int) []WalkForwardFold {
	return TimeSplitter{}.CreateRollingFolds(data, trainDays, testDays, rollDays)
}
