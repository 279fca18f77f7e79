package config

import (
	"github.com/ducminhle1904/quant-backtester/internal/backtest"
	"github.com/ducminhle1904/quant-backtester/internal/portfolio"
	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// Config is the top-level configuration shared by the CLIs
type Config struct {
	DataFile    string            `json:"data_file" yaml:"data_file"`
	PriceColumn string            `json:"price_column" yaml:"price_column"`
	StartDate   string            `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate     string            `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Workers     int               `json:"workers" yaml:"workers"`
	Backtest    backtest.Config   `json:"backtest" yaml:"backtest"`
	Strategies  []strategy.Config `json:"strategies" yaml:"strategies"`
	Portfolio   PortfolioConfig   `json:"portfolio" yaml:"portfolio"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Output      OutputConfig      `json:"output" yaml:"output"`
	Metrics     MetricsConfig     `json:"metrics" yaml:"metrics"`
}

// PortfolioConfig describes a multi-asset optimization run
type PortfolioConfig struct {
	// Assets maps asset name to its bar file
	Assets          map[string]string `json:"assets,omitempty" yaml:"assets,omitempty"`
	Optimizer       portfolio.Config  `json:"optimizer" yaml:"optimizer"`
	FrontierSamples int               `json:"frontier_samples" yaml:"frontier_samples"`
	Seed            int64             `json:"seed" yaml:"seed"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
	// Dir enables a dated log file in addition to stdout
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

type OutputConfig struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Formats []string `json:"formats" yaml:"formats"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// NewDefaultConfig runs all four strategies on close prices with the
// default engine and optimizer settings
func NewDefaultConfig() *Config {
	return &Config{
		PriceColumn: string(types.ColumnClose),
		Workers:     4,
		Backtest:    backtest.DefaultConfig(),
		Strategies: []strategy.Config{
			{Name: "mean_reversion"},
			{Name: "momentum"},
			{Name: "pairs_trading"},
			{Name: "hedge"},
		},
		Portfolio: PortfolioConfig{
			Optimizer:       portfolio.DefaultConfig(),
			FrontierSamples: 500,
			Seed:            42,
		},
		Logging: LoggingConfig{Level: "info"},
		Output: OutputConfig{
			Dir:     ResultsDir,
			Formats: []string{FormatConsole},
		},
		Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
	}
}

// WantsFormat reports whether an output format is enabled
func (c *Config) WantsFormat(format string) bool {
	for _, f := range c.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}
