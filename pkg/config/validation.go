package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// DateLayout is the accepted form of start_date and end_date
const DateLayout = "2006-01-02"

// ConfigValidator implements Validator
type ConfigValidator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate checks every section and returns the first problem found
func (v *ConfigValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if _, ok := types.ParsePriceColumn(cfg.PriceColumn); !ok {
		return fmt.Errorf("unknown price column: %q", cfg.PriceColumn)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got: %d", cfg.Workers)
	}

	if err := v.validateBacktest(cfg); err != nil {
		return err
	}
	if err := v.validateStrategies(cfg); err != nil {
		return err
	}
	if err := v.validatePortfolio(cfg); err != nil {
		return err
	}
	if err := v.validateDates(cfg); err != nil {
		return err
	}
	if err := v.validateOutput(cfg); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics enabled without an address")
	}

	return nil
}

func (v *ConfigValidator) validateBacktest(cfg *Config) error {
	b := cfg.Backtest
	if b.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got: %.2f", b.InitialCapital)
	}
	if b.Commission < 0 || b.Commission > MaxCommission {
		return fmt.Errorf("commission must be between 0 and %.2f, got: %.4f", MaxCommission, b.Commission)
	}
	if b.Slippage < 0 || b.Slippage > MaxSlippage {
		return fmt.Errorf("slippage must be between 0 and %.2f, got: %.4f", MaxSlippage, b.Slippage)
	}
	if b.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got: %d", b.PeriodsPerYear)
	}
	return nil
}

// validateStrategies builds each configured strategy once so parameter
// errors surface before any data is loaded
func (v *ConfigValidator) validateStrategies(cfg *Config) error {
	for i, sc := range cfg.Strategies {
		if _, err := strategy.New(sc); err != nil {
			return fmt.Errorf("strategy %d (%s): %w", i, sc.Name, err)
		}
	}
	return nil
}

func (v *ConfigValidator) validatePortfolio(cfg *Config) error {
	p := cfg.Portfolio.Optimizer
	if p.MinWeight > p.MaxWeight {
		return fmt.Errorf("min weight %.4f exceeds max weight %.4f", p.MinWeight, p.MaxWeight)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got: %d", p.MaxIterations)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got: %g", p.Tolerance)
	}
	if p.PeriodsPerYear <= 0 {
		return fmt.Errorf("portfolio periods per year must be positive, got: %d", p.PeriodsPerYear)
	}
	if cfg.Portfolio.FrontierSamples < 0 {
		return fmt.Errorf("frontier samples must be non-negative, got: %d", cfg.Portfolio.FrontierSamples)
	}

	// weight bound feasibility depends on the asset count and is only known
	// here when assets are listed
	if n := len(cfg.Portfolio.Assets); n > 0 {
		if float64(n)*p.MaxWeight < 1 || float64(n)*p.MinWeight > 1 {
			return fmt.Errorf("weight bounds [%.4f, %.4f] cannot sum to 1 across %d assets", p.MinWeight, p.MaxWeight, n)
		}
	}
	return nil
}

func (v *ConfigValidator) validateDates(cfg *Config) error {
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return fmt.Errorf("start date %s must be before end date %s", cfg.StartDate, cfg.EndDate)
	}
	return nil
}

func (v *ConfigValidator) validateOutput(cfg *Config) error {
	for _, f := range cfg.Output.Formats {
		switch f {
		case FormatConsole, FormatCSV, FormatExcel, FormatJSON:
		default:
			return fmt.Errorf("unknown output format: %q", f)
		}
	}
	return nil
}

// DateRange parses start_date and end_date; unset dates are zero
func (c *Config) DateRange() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.StartDate != "" {
		if start, err = time.Parse(DateLayout, c.StartDate); err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
		}
	}
	if c.EndDate != "" {
		if end, err = time.Parse(DateLayout, c.EndDate); err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", c.EndDate, err)
		}
	}
	return start, end, nil
}
