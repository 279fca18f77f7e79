// Package config provides configuration management for backtests and
// portfolio optimization runs
package config

// Validator checks a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// Common configuration constants
const (
	// Data validation constants
	MaxCommission = 0.1 // 10% per side is already absurd
	MaxSlippage   = 0.1
	MinDataPoints = 30 // Minimum bars required for a meaningful backtest

	// File and directory constants
	DefaultDataRoot   = "data"
	ResultsDir        = "results"
	DefaultLogDir     = "logs"
	DefaultConfigFile = "config.yaml"
	BestConfigFile    = "best.json"

	DefaultMetricsAddr = ":9090"

	// Output formats
	FormatConsole = "console"
	FormatCSV     = "csv"
	FormatExcel   = "xlsx"
	FormatJSON    = "json"
)

// Environment variables read by ApplyEnvOverrides
const (
	EnvDataFile       = "QB_DATA_FILE"
	EnvInitialCapital = "QB_INITIAL_CAPITAL"
	EnvCommission     = "QB_COMMISSION"
	EnvSlippage       = "QB_SLIPPAGE"
	EnvRiskFreeRate   = "QB_RISK_FREE_RATE"
	EnvLogLevel       = "QB_LOG_LEVEL"
	EnvLogDir         = "QB_LOG_DIR"
	EnvOutputDir      = "QB_OUTPUT_DIR"
	EnvMetricsAddr    = "QB_METRICS_ADDR"
	EnvWorkers        = "QB_WORKERS"
)
