package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// SyntheticConfig parameterizes a geometric Brownian motion bar series
type SyntheticConfig struct {
	Bars       int
	StartPrice float64
	// Drift and Volatility are per bar, in log-return units
	Drift      float64
	Volatility float64
	Start      time.Time
	Interval   time.Duration
	Seed       int64
}

// DefaultSyntheticConfig is one year of daily bars starting at 100
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Bars:       252,
		StartPrice: 100,
		Drift:      0.0003,
		Volatility: 0.02,
		Start:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:   24 * time.Hour,
		Seed:       42,
	}
}

// GenerateSynthetic returns a reproducible GBM series; the same config
// always yields the same bars. Open is the previous close and High/Low
// bracket both with a small random range.
func GenerateSynthetic(cfg SyntheticConfig) []types.OHLCV {
	if cfg.Bars <= 0 {
		return nil
	}
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	bars := make([]types.OHLCV, cfg.Bars)
	prev := cfg.StartPrice

	for i := range bars {
		shock := cfg.Drift - 0.5*cfg.Volatility*cfg.Volatility + cfg.Volatility*rng.NormFloat64()
		closePrice := prev * math.Exp(shock)
		spread := math.Abs(rng.NormFloat64()) * cfg.Volatility * 0.5

		bars[i] = types.OHLCV{
			Timestamp: cfg.Start.Add(time.Duration(i) * cfg.Interval),
			Open:      prev,
			High:      math.Max(prev, closePrice) * (1 + spread),
			Low:       math.Min(prev, closePrice) * (1 - spread),
			Close:     closePrice,
			Volume:    1000 + rng.Float64()*9000,
		}
		prev = closePrice
	}
	return bars
}
