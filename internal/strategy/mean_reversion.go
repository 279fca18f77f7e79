package strategy

import (
	"github.com/ducminhle1904/quant-backtester/internal/indicators"
	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// MeanReversion trades the z-score of the close against its rolling mean:
// long below -entry, short above +entry, flat once |z| < exit.
type MeanReversion struct {
	LookbackPeriod  int
	EntryThreshold  float64
	ExitThreshold   float64
	PositionSizePct float64
	Sizer           sizing.PositionSizer
}

// NewMeanReversion creates the strategy with default parameters
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		LookbackPeriod:  20,
		EntryThreshold:  2.0,
		ExitThreshold:   0.5,
		PositionSizePct: 0.25,
	}
}

func (s *MeanReversion) Name() string { return "MeanReversion" }

func (s *MeanReversion) GenerateSignals(bars []types.OHLCV) (*SignalFrame, error) {
	closes := types.Closes(bars)
	frame := NewSignalFrame(len(bars))

	zscore := indicators.ZScore(closes, s.LookbackPeriod)
	frame.Columns["ma"] = indicators.SMA(closes, s.LookbackPeriod)
	frame.Columns["std"] = indicators.RollingStd(closes, s.LookbackPeriod)
	frame.Columns["zscore"] = zscore
	frame.Columns[ColumnVolatility] = annualizedVolatility(closes, s.LookbackPeriod)

	frame.Signals = bandSignals(zscore, s.EntryThreshold, s.ExitThreshold)
	return frame, nil
}

func (s *MeanReversion) CalculatePositionSize(ctx SignalContext, _ []types.OHLCV) float64 {
	return sizeEntry(s.Sizer, ctx, ctx.Capital*s.PositionSizePct)
}
