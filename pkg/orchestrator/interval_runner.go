package orchestrator

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	qerr "github.com/ducminhle1904/quant-backtester/internal/errors"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/data"
	"github.com/ducminhle1904/quant-backtester/pkg/reporting"
)

const component = "orchestrator"

var barExtensions = []string{".parquet", ".csv"}

// DefaultIntervalRunner loads each interval's bars from disk and runs the
// strategies on the backtest worker pool
type DefaultIntervalRunner struct {
	dm        *data.DataManager
	locator   *data.DefaultFileLocator
	period    time.Duration
	objective string
	logger    *logger.Logger
}

// NewDefaultIntervalRunner ranks strategies by objective. A positive period
// keeps only that trailing window of each interval's bars.
func NewDefaultIntervalRunner(objective string, period time.Duration) *DefaultIntervalRunner {
	if objective == "" {
		objective = "sharpe_ratio"
	}
	return &DefaultIntervalRunner{
		dm:        data.NewDataManager(),
		locator:   data.NewDefaultFileLocator(),
		period:    period,
		objective: objective,
		logger:    logger.Nop(),
	}
}

func (r *DefaultIntervalRunner) SetLogger(l *logger.Logger) {
	if l != nil {
		r.logger = l
		r.dm.SetLogger(l)
	}
}

// FindAvailableIntervals lists {root}/{SYMBOL}/{interval}.ext files and
// {root}/{SYMBOL}/{minutes}/candles.ext directories, shortest interval
// first. Two names for the same bar length are reported once.
func (r *DefaultIntervalRunner) FindAvailableIntervals(dataRoot, symbol string) ([]string, error) {
	sym := strings.ToUpper(symbol)
	dir := filepath.Join(dataRoot, sym)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, qerr.Wrap(err, qerr.ErrorCategoryIO, component, "find_intervals").
			WithContext("symbol", sym)
	}

	seen := make(map[string]bool)
	var intervals []string
	add := func(interval string) {
		minutes := r.locator.ConvertIntervalToMinutes(interval)
		if seen[minutes] {
			return
		}
		seen[minutes] = true
		intervals = append(intervals, interval)
	}

	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() {
			ext := strings.ToLower(filepath.Ext(name))
			for _, want := range barExtensions {
				if ext == want {
					add(strings.TrimSuffix(name, filepath.Ext(name)))
				}
			}
			continue
		}
		if _, err := strconv.Atoi(name); err != nil {
			continue
		}
		for _, ext := range barExtensions {
			if _, err := os.Stat(filepath.Join(dir, name, "candles"+ext)); err == nil {
				add(name + "m")
				break
			}
		}
	}

	if len(intervals) == 0 {
		return nil, qerr.New(qerr.ErrorCategoryData, component, "find_intervals",
			fmt.Sprintf("no data found for symbol %s at %s", sym, dataRoot))
	}
	sort.SliceStable(intervals, func(i, j int) bool {
		return r.minutes(intervals[i]) < r.minutes(intervals[j])
	})
	return intervals, nil
}

// minutes orders intervals; names that are not a bar length sort last
func (r *DefaultIntervalRunner) minutes(interval string) int {
	m, err := strconv.Atoi(r.locator.ConvertIntervalToMinutes(interval))
	if err != nil {
		return math.MaxInt32
	}
	return m
}

// RunForInterval loads the interval's bars and backtests every strategy in cfg
func (r *DefaultIntervalRunner) RunForInterval(ctx context.Context, cfg *config.Config, dataRoot, interval string) (*IntervalResult, error) {
	path := r.dm.FindDataFile(dataRoot, cfg.Backtest.Symbol, interval)
	if path == "" {
		return nil, qerr.New(qerr.ErrorCategoryData, component, "run_interval",
			fmt.Sprintf("no %s data for %s", interval, cfg.Backtest.Symbol))
	}

	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	bars, err := r.dm.LoadRange(path, start, end)
	if err != nil {
		return nil, err
	}
	if r.period > 0 {
		bars = r.dm.Filter().FilterByPeriod(bars, r.period)
	}
	if len(bars) < config.MinDataPoints {
		return nil, qerr.New(qerr.ErrorCategoryData, component, "run_interval",
			fmt.Sprintf("only %d %s bars, need at least %d", len(bars), interval, config.MinDataPoints))
	}

	jobs := make([]backtest.Job, 0, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		strat, err := strategy.New(sc)
		if err != nil {
			return nil, qerr.Wrap(err, qerr.ErrorCategoryConfiguration, component, "run_interval")
		}
		jobs = append(jobs, backtest.Job{
			ID:       fmt.Sprintf("%s_%s", strat.Name(), interval),
			Strategy: strat,
			Config:   cfg.Backtest,
			Bars:     bars,
			Column:   cfg.PriceColumn,
		})
	}

	batch, err := backtest.RunBatch(ctx, jobs, cfg.Workers, r.logger)
	if err != nil {
		return nil, err
	}

	result := &IntervalResult{Interval: interval, DataFile: path, Bars: len(bars), Best: -1, Score: math.Inf(-1)}
	for _, jr := range batch {
		if jr.Error != nil || jr.Metrics == nil {
			r.logger.Warning("%s produced no metrics: %v", jr.ID, jr.Error)
			continue
		}
		result.Reports = append(result.Reports, reporting.BacktestReport{Results: jr.Results, Metrics: jr.Metrics})
		if v, ok := jr.Metrics.Map()[r.objective]; ok && !math.IsNaN(v) && (result.Best < 0 || v > result.Score) {
			result.Best, result.Score = len(result.Reports)-1, v
		}
	}
	if len(result.Reports) == 0 {
		return nil, qerr.New(qerr.ErrorCategoryData, component, "run_interval",
			fmt.Sprintf("every strategy failed on %s", interval))
	}
	if result.Best < 0 {
		result.Best = 0
	}
	return result, nil
}
