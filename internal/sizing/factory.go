package sizing

import (
	"fmt"
	"strings"
)

// Config selects and parameterizes a sizer
type Config struct {
	Method           string  `json:"method" yaml:"method"`
	KellyFraction    float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
	TargetVolatility float64 `json:"target_volatility" yaml:"target_volatility"`
	Fraction         float64 `json:"fraction" yaml:"fraction"`
	// Kelly win statistics; zero takes the defaults
	WinProbability float64 `json:"win_probability" yaml:"win_probability"`
	WinLossRatio   float64 `json:"win_loss_ratio" yaml:"win_loss_ratio"`
}

// DefaultConfig returns quarter-Kelly with the default risk-parity target
func DefaultConfig() Config {
	return Config{
		Method:           "kelly",
		KellyFraction:    0.25,
		TargetVolatility: 0.15,
		Fraction:         0.1,
		WinProbability:   0.55,
		WinLossRatio:     1.5,
	}
}

// New creates a position sizer based on configuration
func New(cfg Config) (PositionSizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Method)) {
	case "kelly", "":
		if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
			return nil, fmt.Errorf("kelly fraction must be in (0, 1], got %.4f", cfg.KellyFraction)
		}
		defaults := DefaultConfig()
		p, b := cfg.WinProbability, cfg.WinLossRatio
		if p == 0 {
			p = defaults.WinProbability
		}
		if b == 0 {
			b = defaults.WinLossRatio
		}
		if p <= 0 || p >= 1 {
			return nil, fmt.Errorf("win probability must be in (0, 1), got %.4f", p)
		}
		if b <= 0 {
			return nil, fmt.Errorf("win/loss ratio must be positive, got %.4f", b)
		}
		return NewKelly(cfg.KellyFraction).WithWinStatistics(p, b), nil

	// With the damped inverse-volatility weight most assets size above
	// capital, so entries are skipped unless volatility is very high.
	case "risk_parity", "risk-parity":
		if cfg.TargetVolatility <= 0 {
			return nil, fmt.Errorf("target volatility must be positive, got %.4f", cfg.TargetVolatility)
		}
		return NewRiskParity(cfg.TargetVolatility), nil

	case "fixed_fractional", "fixed":
		if cfg.Fraction <= 0 || cfg.Fraction > 1 {
			return nil, fmt.Errorf("fixed fraction must be in (0, 1], got %.4f", cfg.Fraction)
		}
		return NewFixedFractional(cfg.Fraction), nil

	default:
		return nil, fmt.Errorf("unknown sizing method: %s (supported: %s)", cfg.Method, strings.Join(AvailableMethods(), ", "))
	}
}

// AvailableMethods returns a list of available sizing methods
func AvailableMethods() []string {
	return []string{"kelly", "risk_parity", "fixed_fractional"}
}
