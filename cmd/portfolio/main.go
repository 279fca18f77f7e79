package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	cmdcommon "github.com/ducminhle1904/quant-backtester/cmd/common"
	"github.com/ducminhle1904/quant-backtester/internal/logger"
	"github.com/ducminhle1904/quant-backtester/internal/monitoring"
	"github.com/ducminhle1904/quant-backtester/internal/portfolio"
	"github.com/ducminhle1904/quant-backtester/pkg/config"
	"github.com/ducminhle1904/quant-backtester/pkg/data"
	"github.com/ducminhle1904/quant-backtester/pkg/reporting"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

const (
	appName = "portfolio"
	// portfolio outputs go under <output>/PORTFOLIO
	outputLabel = "PORTFOLIO"
)

// syntheticAssets sets per-bar drift and volatility for -synthetic runs
var syntheticAssets = []struct {
	name       string
	drift      float64
	volatility float64
}{
	{"ASSET_A", 0.0002, 0.010},
	{"ASSET_B", 0.0004, 0.015},
	{"ASSET_C", 0.0006, 0.020},
	{"ASSET_D", 0.0008, 0.030},
}

// runOptions are the portfolio-specific flags
type runOptions struct {
	assets    string
	symbols   string
	interval  string
	synthetic int
	seed      int64

	minWeight    float64
	maxWeight    float64
	riskFreeRate float64
	frontier     int
}

func main() {
	common := cmdcommon.RegisterCommonFlags(flag.CommandLine)
	defaults := config.NewDefaultConfig().Portfolio
	var opts runOptions

	flag.StringVar(&opts.assets, "assets", "", "Comma-separated NAME=path bar files, e.g. BTC=data/BTC.csv,ETH=data/ETH.parquet")
	flag.StringVar(&opts.symbols, "symbols", "", "Comma-separated symbols to resolve under -data-root")
	flag.StringVar(&opts.interval, "interval", "1d", "Data interval when resolving -symbols")
	flag.IntVar(&opts.synthetic, "synthetic", 0, "Generate N synthetic daily bars for four assets instead of loading files")
	flag.Int64Var(&opts.seed, "seed", defaults.Seed, "Seed for -synthetic and frontier sampling")
	flag.Float64Var(&opts.minWeight, "min-weight", defaults.Optimizer.MinWeight, "Lower weight bound per asset")
	flag.Float64Var(&opts.maxWeight, "max-weight", defaults.Optimizer.MaxWeight, "Upper weight bound per asset")
	flag.Float64Var(&opts.riskFreeRate, "risk-free-rate", defaults.Optimizer.RiskFreeRate, "Annual risk-free rate for Sharpe")
	flag.IntVar(&opts.frontier, "frontier", defaults.FrontierSamples, "Random portfolios sampled for the frontier")

	usage := cmdcommon.NewUsageFormatter(appName, "Optimize portfolio weights across several assets", flag.CommandLine).
		AddExample("portfolio -assets BTC=data/BTC.csv,ETH=data/ETH.csv,SOL=data/SOL.csv", "Optimize three assets from files").
		AddExample("portfolio -symbols BTCUSDT,ETHUSDT -interval 4h -max-weight 0.6 -formats console,xlsx", "Resolve data under -data-root").
		AddExample("portfolio -synthetic 500 -formats console,json", "Optimize synthetic assets")
	flag.Usage = usage.PrintUsage
	flag.Parse()

	if cmdcommon.CheckHelpAndVersion(appName, common, usage) {
		return
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if err := cmdcommon.LoadEnvFile(*common.EnvFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), using system environment", err)
	}

	cfg, err := cmdcommon.LoadConfig(common)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := opts.apply(cfg, set, *common.DataRoot); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	lg, err := cmdcommon.SetupLogger(cfg, appName)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer lg.Close()
	lg.Info("%s %s", cmdcommon.ProjectName, cmdcommon.GetFullVersion())

	cmdcommon.StartMetricsServer(cfg.Metrics, lg)

	if err := run(cfg, opts, lg); err != nil {
		lg.LogError("portfolio", err)
		monitoring.RecordError("portfolio")
		lg.Close()
		log.Fatalf("Portfolio optimization failed: %v", err)
	}
}

// apply overlays explicitly set flags on cfg and revalidates it
func (o runOptions) apply(cfg *config.Config, set map[string]bool, dataRoot string) error {
	if o.assets != "" {
		assets, err := parseAssets(o.assets)
		if err != nil {
			return err
		}
		cfg.Portfolio.Assets = assets
	}
	if o.symbols != "" {
		dm := data.NewDataManager()
		assets := make(map[string]string)
		for _, sym := range strings.Split(o.symbols, ",") {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if sym == "" {
				continue
			}
			path := dm.FindDataFile(dataRoot, sym, o.interval)
			if path == "" {
				return fmt.Errorf("no %s data for %s under %s", o.interval, sym, dataRoot)
			}
			assets[sym] = path
		}
		cfg.Portfolio.Assets = assets
	}
	if o.synthetic > 0 {
		cfg.Portfolio.Assets = make(map[string]string, len(syntheticAssets))
		for _, a := range syntheticAssets {
			cfg.Portfolio.Assets[a.name] = ""
		}
	}

	if set["min-weight"] {
		cfg.Portfolio.Optimizer.MinWeight = o.minWeight
	}
	if set["max-weight"] {
		cfg.Portfolio.Optimizer.MaxWeight = o.maxWeight
	}
	if set["risk-free-rate"] {
		cfg.Portfolio.Optimizer.RiskFreeRate = o.riskFreeRate
	}
	if set["frontier"] {
		cfg.Portfolio.FrontierSamples = o.frontier
	}
	if set["seed"] {
		cfg.Portfolio.Seed = o.seed
	}

	if len(cfg.Portfolio.Assets) < 2 {
		return fmt.Errorf("need at least 2 assets, got %d (use -assets, -symbols or -synthetic)", len(cfg.Portfolio.Assets))
	}
	return config.NewValidator().Validate(cfg)
}

// parseAssets reads NAME=path pairs
func parseAssets(s string) (map[string]string, error) {
	assets := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, path, ok := strings.Cut(part, "=")
		name, path = strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid asset %q (want NAME=path)", part)
		}
		if _, dup := assets[name]; dup {
			return nil, fmt.Errorf("duplicate asset %s", name)
		}
		assets[name] = path
	}
	return assets, nil
}

func run(cfg *config.Config, opts runOptions, lg *logger.Logger) error {
	started := time.Now()

	series, err := loadSeries(cfg, opts, lg)
	if err != nil {
		return err
	}

	report, err := optimize(cfg, series, lg)
	if err != nil {
		return err
	}

	rc := reporting.ReportingConfig{
		EnableConsole:   cfg.WantsFormat(config.FormatConsole),
		OutputDirectory: reporting.OutputDir(cfg.Output.Dir, outputLabel),
		CSVEnabled:      cfg.WantsFormat(config.FormatCSV),
		ExcelEnabled:    cfg.WantsFormat(config.FormatExcel),
		JSONEnabled:     cfg.WantsFormat(config.FormatJSON),
	}
	written, err := reporting.NewReportingManager(rc).ReportPortfolio(report)
	for _, path := range written {
		lg.Info("Wrote %s", path)
	}
	if err != nil {
		return err
	}

	lg.Info("Completed in %s", cmdcommon.FormatDuration(time.Since(started)))
	return nil
}

func loadSeries(cfg *config.Config, opts runOptions, lg *logger.Logger) (map[string][]types.OHLCV, error) {
	series := make(map[string][]types.OHLCV, len(cfg.Portfolio.Assets))

	if opts.synthetic > 0 {
		for i, a := range syntheticAssets {
			sc := data.DefaultSyntheticConfig()
			sc.Bars = opts.synthetic
			sc.Drift = a.drift
			sc.Volatility = a.volatility
			sc.Seed = opts.seed + int64(i)
			series[a.name] = data.GenerateSynthetic(sc)
		}
		lg.Info("Generated %d synthetic bars for %d assets", opts.synthetic, len(series))
		return series, nil
	}

	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	dm := data.NewDataManager()
	dm.SetLogger(lg)

	names := make([]string, 0, len(cfg.Portfolio.Assets))
	for name := range cfg.Portfolio.Assets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := cfg.Portfolio.Assets[name]
		bars, err := dm.LoadRange(path, start, end)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", name, err)
		}
		lg.Info("Loaded %d bars for %s from %s", len(bars), name, filepath.Base(path))
		series[name] = bars
	}
	return series, nil
}

// optimize runs both mean-variance solves, risk parity, the frontier sample
// and the correlation matrix. A zero-variance asset only drops risk parity.
func optimize(cfg *config.Config, series map[string][]types.OHLCV, lg *logger.Logger) (reporting.PortfolioReport, error) {
	matrix, err := portfolio.ReturnsFromPrices(series)
	if err != nil {
		return reporting.PortfolioReport{}, err
	}
	lg.Info("Aligned %d return periods across %d assets", matrix.Periods(), matrix.NumAssets())

	opt := portfolio.NewOptimizer(cfg.Portfolio.Optimizer)
	opt.SetLogger(lg)

	report := reporting.PortfolioReport{Assets: matrix.Assets}

	for _, solve := range []func(*portfolio.ReturnsMatrix) (*portfolio.OptimizationResult, error){
		opt.OptimizeMaxSharpe,
		opt.OptimizeMinVolatility,
	} {
		res, err := solve(matrix)
		if err != nil {
			return report, err
		}
		report.Optimized = append(report.Optimized, res)
	}

	report.RiskParity, err = opt.RiskParityWeights(matrix)
	if err != nil {
		if !errors.Is(err, portfolio.ErrZeroVariance) {
			return report, err
		}
		lg.Warning("Skipping risk parity: %v", err)
	}

	if cfg.Portfolio.FrontierSamples > 0 {
		report.Frontier = opt.SampleFrontier(matrix, cfg.Portfolio.FrontierSamples, cfg.Portfolio.Seed)
	}
	report.Correlation = matrix.Correlation()
	return report, nil
}
