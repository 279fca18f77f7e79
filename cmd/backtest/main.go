package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	cmdcommon "github.com/ducminhle1904/quant-backtester/cmd/common"
	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/data"
	"github.com/ducminhle1904/quant-backtester/pkg/optimization"
	"github.com/ducminhle1904/quant-backtester/pkg/orchestrator"
	"github.com/ducminhle1904/quant-backtester/pkg/reporting"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
	"github.com/ducminhle1904/quant-backtester/pkg/validation"
)

const appName = "backtest"

// search methods for -optimize
const (
	methodGrid = "grid"
	methodGA   = "ga"
)

// runOptions are the backtest-specific flags
type runOptions struct {
	dataFile         string
	symbol           string
	interval         string
	column           string
	strategies       string
	period           string
	synthetic        int
	seed             int64
	allIntervals     bool
	exportIndicators bool

	optimize  bool
	method    string
	sweep     string
	objective string
	top       int
	ga        optimization.OptimizationConfig

	wfEnable bool
	wf       validation.WalkForwardConfig
}

func main() {
	common := cmdcommon.RegisterCommonFlags(flag.CommandLine)
	opts := runOptions{
		wf: validation.DefaultWalkForwardConfig(),
		ga: optimization.DefaultOptimizationConfig(),
	}

	flag.StringVar(&opts.dataFile, "data", "", "Bar file (.csv or .parquet); overrides data_file")
	flag.StringVar(&opts.symbol, "symbol", "", "Symbol used to label outputs and to find data under -data-root")
	flag.StringVar(&opts.interval, "interval", "1d", "Data interval when resolving -symbol (e.g. 15m,1h,4h,1d)")
	flag.StringVar(&opts.column, "column", "", "Price column to trade (open, high, low, close, volume)")
	flag.StringVar(&opts.strategies, "strategies", "", "Comma-separated strategies to run (default from config)")
	flag.StringVar(&opts.period, "period", "", "Limit data to trailing window (e.g. 30d, 180d, 365d)")
	flag.IntVar(&opts.synthetic, "synthetic", 0, "Generate N synthetic daily bars instead of loading a file")
	flag.Int64Var(&opts.seed, "seed", 42, "Seed for -synthetic and -method ga")
	flag.BoolVar(&opts.exportIndicators, "export-indicators", false, "Write the bars with SMA/EMA/Bollinger/RSI/ATR columns to indicators.csv")
	flag.BoolVar(&opts.allIntervals, "all-intervals", false, "Backtest every interval stored for -symbol under -data-root")

	flag.BoolVar(&opts.optimize, "optimize", false, "Sweep the first strategy's parameters and save the best as "+config.BestConfigFile)
	flag.StringVar(&opts.method, "method", methodGrid, "Search method for -optimize: grid or ga")
	flag.StringVar(&opts.sweep, "sweep", "", "Sweep grid, e.g. \"lookback_period=10:20:30;entry_threshold=1.5:2\" (default per strategy)")
	flag.StringVar(&opts.objective, "objective", "sharpe_ratio", "Metric the sweep maximizes")
	flag.IntVar(&opts.top, "top", 10, "Sweep combinations to print")
	flag.IntVar(&opts.ga.PopulationSize, "ga-population", opts.ga.PopulationSize, "GA population size")
	flag.IntVar(&opts.ga.Generations, "ga-generations", opts.ga.Generations, "GA generations")

	flag.BoolVar(&opts.wfEnable, "wf-enable", false, "Walk-forward validate the sweep (requires -optimize)")
	flag.Float64Var(&opts.wf.SplitRatio, "wf-split-ratio", opts.wf.SplitRatio, "Train share for holdout validation")
	flag.BoolVar(&opts.wf.Rolling, "wf-rolling", false, "Use rolling walk-forward instead of simple holdout")
	flag.IntVar(&opts.wf.TrainDays, "wf-train-days", opts.wf.TrainDays, "Training window size in days (rolling)")
	flag.IntVar(&opts.wf.TestDays, "wf-test-days", opts.wf.TestDays, "Test window size in days (rolling)")
	flag.IntVar(&opts.wf.RollDays, "wf-roll-days", opts.wf.RollDays, "Roll forward step size in days (rolling)")

	usage := cmdcommon.NewUsageFormatter(appName, "Backtest trading strategies on historical bars", flag.CommandLine).
		AddExample("backtest -data data/BTCUSDT/1d.csv -formats console,csv,xlsx", "Run every configured strategy").
		AddExample("backtest -symbol BTCUSDT -interval 1h -strategies momentum -period 180d", "Resolve data under -data-root").
		AddExample("backtest -symbol BTCUSDT -all-intervals -objective total_return", "Compare every stored interval").
		AddExample("backtest -synthetic 500 -optimize -strategies mean_reversion -wf-enable", "Sweep and walk-forward validate on synthetic data").
		AddExample("backtest -symbol ETHUSDT -optimize -method ga -ga-generations 20 -objective total_return", "Genetic search instead of the full grid")
	flag.Usage = usage.PrintUsage
	flag.Parse()

	if cmdcommon.CheckHelpAndVersion(appName, common, usage) {
		return
	}

	if err := cmdcommon.LoadEnvFile(*common.EnvFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), using system environment", err)
	}

	cfg, err := cmdcommon.LoadConfig(common)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := opts.apply(cfg, *common.DataRoot); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	if opts.wfEnable && !opts.optimize {
		log.Fatalf("-wf-enable requires -optimize")
	}
	if opts.allIntervals && opts.optimize {
		log.Fatalf("-all-intervals cannot be combined with -optimize")
	}

	lg, err := cmdcommon.SetupLogger(cfg, appName)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer lg.Close()
	lg.Info("%s %s", cmdcommon.ProjectName, cmdcommon.GetFullVersion())

	cmdcommon.StartMetricsServer(cfg.Metrics, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.allIntervals {
		err = runAllIntervals(ctx, cfg, opts, *common.DataRoot, lg)
	} else {
		err = run(ctx, cfg, opts, lg)
	}
	if err != nil {
		lg.LogError("backtest", err)
		monitoring.RecordError("backtest")
		lg.Close()
		log.Fatalf("Backtest failed: %v", err)
	}
}

// apply overlays the backtest flags on cfg and revalidates it
func (o runOptions) apply(cfg *config.Config, dataRoot string) error {
	if o.symbol != "" {
		cfg.Backtest.Symbol = strings.ToUpper(o.symbol)
	}
	if o.dataFile != "" {
		cfg.DataFile = o.dataFile
	}
	if o.allIntervals {
		if o.symbol == "" {
			return fmt.Errorf("-all-intervals requires -symbol")
		}
	} else if cfg.DataFile == "" && o.synthetic <= 0 && o.symbol != "" {
		cfg.DataFile = data.NewDataManager().FindDataFile(dataRoot, o.symbol, o.interval)
	}
	if o.column != "" {
		cfg.PriceColumn = o.column
	}
	if o.strategies != "" {
		var selected []strategy.Config
		for _, name := range strings.Split(o.strategies, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			selected = append(selected, configuredStrategy(cfg.Strategies, name))
		}
		cfg.Strategies = selected
	}
	if len(cfg.Strategies) == 0 {
		return fmt.Errorf("no strategies selected")
	}
	if o.method != "" && o.method != methodGrid && o.method != methodGA {
		return fmt.Errorf("unknown -method %q (want %s or %s)", o.method, methodGrid, methodGA)
	}
	if cfg.DataFile == "" && o.synthetic <= 0 && !o.allIntervals {
		return fmt.Errorf("no data: set -data, -symbol, data_file or -synthetic")
	}
	return config.NewValidator().Validate(cfg)
}

// configuredStrategy keeps the parameters of a strategy already listed in
// the config file
func configuredStrategy(configured []strategy.Config, name string) strategy.Config {
	for _, sc := range configured {
		if strategy.CanonicalName(sc.Name) == strategy.CanonicalName(name) {
			return sc
		}
	}
	return strategy.Config{Name: name}
}

func run(ctx context.Context, cfg *config.Config, opts runOptions, lg *logger.Logger) error {
	started := time.Now()

	bars, err := loadBars(cfg, opts, lg)
	if err != nil {
		return err
	}
	if len(bars) < config.MinDataPoints {
		return fmt.Errorf("only %d bars after filtering, need at least %d", len(bars), config.MinDataPoints)
	}
	lg.Info("Loaded %d bars (%s → %s)", len(bars),
		bars[0].Timestamp.Format("2006-01-02"), bars[len(bars)-1].Timestamp.Format("2006-01-02"))

	if opts.exportIndicators {
		path := filepath.Join(reporting.OutputDir(cfg.Output.Dir, cfg.Backtest.Symbol), "indicators.csv")
		if err := reporting.NewDefaultCSVReporter().WriteIndicatorsCSV(bars, path); err != nil {
			return err
		}
		lg.Info("Indicators written to %s", path)
	}

	if opts.optimize {
		err = runOptimization(ctx, cfg, opts, bars, lg)
	} else {
		err = runBacktests(ctx, cfg, bars, lg)
	}
	if err != nil {
		return err
	}

	lg.Info("Completed in %s", cmdcommon.FormatDuration(time.Since(started)))
	return nil
}

func loadBars(cfg *config.Config, opts runOptions, lg *logger.Logger) ([]types.OHLCV, error) {
	var bars []types.OHLCV
	if opts.synthetic > 0 {
		sc := data.DefaultSyntheticConfig()
		sc.Bars = opts.synthetic
		sc.Seed = opts.seed
		bars = data.GenerateSynthetic(sc)
		if cfg.Backtest.Symbol == "" {
			cfg.Backtest.Symbol = "SYNTHETIC"
		}
		lg.Info("Generated %d synthetic bars (seed %d)", len(bars), opts.seed)
	} else {
		start, end, err := cfg.DateRange()
		if err != nil {
			return nil, err
		}
		dm := data.NewDataManager()
		dm.SetLogger(lg)
		if bars, err = dm.LoadRange(cfg.DataFile, start, end); err != nil {
			return nil, err
		}
		if cfg.Backtest.Symbol == "" {
			cfg.Backtest.Symbol = symbolFromPath(cfg.DataFile)
		}
	}

	if opts.period != "" {
		d, ok := data.ParseTrailingPeriod(opts.period)
		if !ok {
			return nil, fmt.Errorf("invalid -period %q", opts.period)
		}
		bars = data.NewDefaultDataFilter().FilterByPeriod(bars, d)
	}
	return bars, nil
}

// symbolFromPath labels outputs from <ROOT>/<SYMBOL>/<interval>.csv,
// <ROOT>/<SYMBOL>/<minutes>/candles.csv or <SYMBOL>.csv
func symbolFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := filepath.Dir(path)
	if base == "candles" {
		return strings.ToUpper(filepath.Base(filepath.Dir(dir)))
	}
	minutes := data.NewDefaultFileLocator().ConvertIntervalToMinutes(base)
	if _, err := strconv.Atoi(minutes); err == nil {
		return strings.ToUpper(filepath.Base(dir))
	}
	return strings.ToUpper(base)
}

func runBacktests(ctx context.Context, cfg *config.Config, bars []types.OHLCV, lg *logger.Logger) error {
	jobs := make([]backtest.Job, 0, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		strat, err := strategy.New(sc)
		if err != nil {
			return err
		}
		jobs = append(jobs, backtest.Job{
			Strategy: strat,
			Config:   cfg.Backtest,
			Bars:     bars,
			Column:   cfg.PriceColumn,
		})
	}

	lg.Info("Running %d strategies on %d workers", len(jobs), cfg.Workers)
	results, batchErr := backtest.RunBatch(ctx, jobs, cfg.Workers, lg)

	reports := make([]reporting.BacktestReport, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			lg.Error("%s failed: %v", r.ID, r.Error)
			monitoring.RecordError("backtest_job")
			continue
		}
		reports = append(reports, reporting.BacktestReport{Results: r.Results, Metrics: r.Metrics})
	}
	if batchErr != nil {
		return batchErr
	}
	if len(reports) == 0 {
		return fmt.Errorf("every strategy failed")
	}

	written, err := reporting.NewReportingManager(reportingConfig(cfg)).ReportBacktests(reports)
	for _, path := range written {
		lg.Info("Wrote %s", path)
	}
	return err
}

// runAllIntervals backtests every interval stored for the symbol, prints the
// comparison and writes per-interval reports under <output>/<interval>
func runAllIntervals(ctx context.Context, cfg *config.Config, opts runOptions, dataRoot string, lg *logger.Logger) error {
	var period time.Duration
	if opts.period != "" {
		d, ok := data.ParseTrailingPeriod(opts.period)
		if !ok {
			return fmt.Errorf("invalid -period %q", opts.period)
		}
		period = d
	}

	runner := orchestrator.NewDefaultIntervalRunner(opts.objective, period)
	runner.SetLogger(lg)
	o := orchestrator.NewOrchestrator(runner, opts.objective)
	o.SetLogger(lg)

	analysis, err := o.RunMultiIntervalAnalysis(ctx, cfg, dataRoot)
	if err != nil {
		return err
	}
	if cfg.WantsFormat(config.FormatConsole) {
		printIntervalAnalysis(analysis)
	}

	for _, r := range analysis.Results {
		if r.Error != nil {
			continue
		}
		rc := reportingConfig(cfg)
		rc.EnableConsole = false
		rc.OutputDirectory = filepath.Join(cfg.Output.Dir, r.Interval)
		written, err := reporting.NewReportingManager(rc).ReportBacktests(r.Reports)
		for _, path := range written {
			lg.Info("Wrote %s", path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runOptimization(ctx context.Context, cfg *config.Config, opts runOptions, bars []types.OHLCV, lg *logger.Logger) error {
	base := cfg.Strategies[0]
	if len(cfg.Strategies) > 1 {
		lg.Warning("Optimizing %s only; select a single strategy with -strategies", base.Name)
	}
	grid, err := parseGrid(opts.sweep, base.Name)
	if err != nil {
		return err
	}

	search := newSearcher(cfg, opts, base, grid, lg)
	results, err := search.Run(ctx, bars, cfg.PriceColumn)
	if err != nil {
		return err
	}
	if len(results) == 0 || results[0].Metrics == nil {
		return fmt.Errorf("no parameter combination produced metrics")
	}
	printSweepResults(base.Name, opts.objective, results, opts.top)

	if opts.wfEnable {
		v := validation.NewWalkForwardValidator(search, base, cfg.Backtest, cfg.PriceColumn)
		v.SetLogger(lg)
		summary, err := v.Validate(ctx, bars, opts.wf)
		if err != nil {
			return err
		}
		printWalkForward(summary)
	}

	if !cfg.WantsFormat(config.FormatJSON) && !cfg.WantsFormat(config.FormatCSV) && !cfg.WantsFormat(config.FormatExcel) {
		return nil
	}
	best := *cfg
	best.Strategies = []strategy.Config{{
		Name:       base.Name,
		Parameters: mergeParameters(base.Parameters, results[0].Parameters),
		Sizing:     base.Sizing,
	}}
	path := filepath.Join(reporting.OutputDir(cfg.Output.Dir, cfg.Backtest.Symbol), config.BestConfigFile)
	if err := config.Save(&best, path); err != nil {
		return err
	}
	lg.Info("Best configuration saved to %s", path)
	return nil
}

// newSearcher builds the grid sweep or the genetic optimizer over grid
func newSearcher(cfg *config.Config, opts runOptions, base strategy.Config, grid backtest.ParameterGrid, lg *logger.Logger) validation.Searcher {
	if opts.method == methodGA {
		lg.Info("Genetic search over %d parameter combinations of %s (population %d, %d generations)",
			len(grid.Combinations()), base.Name, opts.ga.PopulationSize, opts.ga.Generations)
		return &optimization.GeneticOptimizer{
			Base:      base,
			Ranges:    grid,
			Config:    cfg.Backtest,
			Objective: opts.objective,
			Settings:  opts.ga,
			Seed:      opts.seed,
			Workers:   cfg.Workers,
			Logger:    lg,
		}
	}
	lg.Info("Sweeping %d parameter combinations of %s", len(grid.Combinations()), base.Name)
	return &backtest.ParameterSweep{
		Base:      base,
		Grid:      grid,
		Config:    cfg.Backtest,
		Objective: opts.objective,
		Workers:   cfg.Workers,
		Logger:    lg,
	}
}

func mergeParameters(base, best map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(best))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range best {
		out[k] = v
	}
	return out
}

func reportingConfig(cfg *config.Config) reporting.ReportingConfig {
	return reporting.ReportingConfig{
		EnableConsole:   cfg.WantsFormat(config.FormatConsole),
		OutputDirectory: cfg.Output.Dir,
		CSVEnabled:      cfg.WantsFormat(config.FormatCSV),
		ExcelEnabled:    cfg.WantsFormat(config.FormatExcel),
		JSONEnabled:     cfg.WantsFormat(config.FormatJSON),
	}
}
