package indicators

import "github.com/ducminhle1904/quant-backtester/pkg/types"

// Bundle is the standard indicator set computed over a bar series
type Bundle struct {
	SMA20    []float64
	SMA50    []float64
	EMA12    []float64
	EMA26    []float64
	BBMiddle []float64
	BBUpper  []float64
	BBLower  []float64
	RSI      []float64
	ATR      []float64
}

// Calculate computes the standard bundle on closing prices
func Calculate(bars []types.OHLCV) *Bundle {
	closes := types.Closes(bars)
	bb := Bollinger(closes, 20, 2)

	return &Bundle{
		SMA20:    SMA(closes, 20),
		SMA50:    SMA(closes, 50),
		EMA12:    EMA(closes, 12),
		EMA26:    EMA(closes, 26),
		BBMiddle: bb.Middle,
		BBUpper:  bb.Upper,
		BBLower:  bb.Lower,
		RSI:      RSI(closes, 14),
		ATR:      ATR(bars, 14),
	}
}

// Columns exposes the bundle by column name
func (b *Bundle) Columns() map[string][]float64 {
	return map[string][]float64{
		"sma_20":    b.SMA20,
		"sma_50":    b.SMA50,
		"ema_12":    b.EMA12,
		"ema_26":    b.EMA26,
		"bb_middle": b.BBMiddle,
		"bb_upper":  b.BBUpper,
		"bb_lower":  b.BBLower,
		"rsi":       b.RSI,
		"atr":       b.ATR,
	}
}
