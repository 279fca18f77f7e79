package strategy

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/quant-backtester/internal/sizing"
)

// Config selects a strategy and overrides its numeric parameters
type Config struct {
	Name       string             `json:"name" yaml:"name"`
	Parameters map[string]float64 `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Sizing replaces the strategy's percentage allocation when set
	Sizing *sizing.Config `json:"sizing,omitempty" yaml:"sizing,omitempty"`
}

// New creates a strategy based on configuration
func New(cfg Config) (Strategy, error) {
	var sizer sizing.PositionSizer
	if cfg.Sizing != nil {
		var err error
		if sizer, err = sizing.New(*cfg.Sizing); err != nil {
			return nil, err
		}
	}
	p := params(cfg.Parameters)

	switch CanonicalName(cfg.Name) {
	case "mean_reversion":
		s := NewMeanReversion()
		s.LookbackPeriod = p.int("lookback_period", s.LookbackPeriod)
		s.EntryThreshold = p.float("entry_threshold", s.EntryThreshold)
		s.ExitThreshold = p.float("exit_threshold", s.ExitThreshold)
		s.PositionSizePct = p.float("position_size_pct", s.PositionSizePct)
		s.Sizer = sizer
		return checked(s, s.LookbackPeriod)

	case "momentum":
		s := NewMomentum()
		s.MACDFast = p.int("macd_fast", s.MACDFast)
		s.MACDSlow = p.int("macd_slow", s.MACDSlow)
		s.MACDSignal = p.int("macd_signal", s.MACDSignal)
		s.RSIPeriod = p.int("rsi_period", s.RSIPeriod)
		s.RSIOversold = p.float("rsi_oversold", s.RSIOversold)
		s.RSIOverbought = p.float("rsi_overbought", s.RSIOverbought)
		s.PositionSizePct = p.float("position_size_pct", s.PositionSizePct)
		s.Sizer = sizer
		if s.MACDFast >= s.MACDSlow {
			return nil, fmt.Errorf("macd_fast (%d) must be less than macd_slow (%d)", s.MACDFast, s.MACDSlow)
		}
		return checked(s, s.RSIPeriod)

	case "pairs_trading":
		s := NewPairsTrading()
		s.LookbackPeriod = p.int("lookback_period", s.LookbackPeriod)
		s.EntryThreshold = p.float("entry_threshold", s.EntryThreshold)
		s.ExitThreshold = p.float("exit_threshold", s.ExitThreshold)
		s.PositionSizePct = p.float("position_size_pct", s.PositionSizePct)
		s.Sizer = sizer
		return checked(s, s.LookbackPeriod)

	case "hedge":
		s := NewHedge()
		s.LookbackPeriod = p.int("lookback_period", s.LookbackPeriod)
		s.RegimeWindow = p.int("regime_window", s.RegimeWindow)
		s.LowQuantile = p.float("low_quantile", s.LowQuantile)
		s.HighQuantile = p.float("high_quantile", s.HighQuantile)
		s.MaxPositionPct = p.float("max_position_pct", s.MaxPositionPct)
		s.Sizer = sizer
		return checked(s, s.LookbackPeriod)

	default:
		return nil, fmt.Errorf("unknown strategy: %s (supported: %s)", cfg.Name, strings.Join(AvailableStrategies(), ", "))
	}
}

// CanonicalName maps a configured strategy name or alias onto the names
// AvailableStrategies lists. Unknown names come back lowercased.
func CanonicalName(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "mean_reversion", "meanreversion":
		return "mean_reversion"
	case "pairs_trading", "pairs", "pairstrading":
		return "pairs_trading"
	default:
		return n
	}
}

// AvailableStrategies returns a list of available strategies
func AvailableStrategies() []string {
	return []string{
		"mean_reversion", // z-score bands around a rolling mean
		"momentum",       // MACD crossover with RSI confirmation
		"pairs_trading",  // rolling OLS spread z-score
		"hedge",          // volatility regime filter
	}
}

func checked(s Strategy, window int) (Strategy, error) {
	if window < 2 {
		return nil, fmt.Errorf("%s: window must be at least 2, got %d", s.Name(), window)
	}
	return s, nil
}

type params map[string]float64

func (p params) float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p params) int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}
