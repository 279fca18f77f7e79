package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/ducminhle1904/quant-backtester/internal/strategy"
	"github.com/ducminhle1904/quant-backtester/pkg/types"
)

// TradeSide labels a fill in the trade log
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
	SideExit TradeSide = "exit"
)

// Trade is one fill. PnL is set on exits only.
type Trade struct {
	Timestamp  time.Time `json:"timestamp"`
	Side       TradeSide `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Value      float64   `json:"value"`
	Commission float64   `json:"commission"`
	PnL        *float64  `json:"pnl,omitempty"`
}

// ResultRow is the per-bar record of a run
type ResultRow struct {
	Timestamp      time.Time          `json:"timestamp"`
	Price          float64            `json:"price"`
	Signal         strategy.Direction `json:"signal"`
	Position       strategy.Direction `json:"position"`
	Quantity       float64            `json:"quantity"`
	Capital        float64            `json:"capital"`
	PortfolioValue float64            `json:"portfolio_value"`
	EquityCurve    float64            `json:"equity_curve"`
	// Return is NaN on the first row
	Return float64 `json:"-"`
}

// MarshalJSON writes Return as "returns", null where it is NaN
func (r ResultRow) MarshalJSON() ([]byte, error) {
	type plain ResultRow
	out := struct {
		plain
		Returns *float64 `json:"returns"`
	}{plain: plain(r)}
	if !math.IsNaN(r.Return) && !math.IsInf(r.Return, 0) {
		v := r.Return
		out.Returns = &v
	}
	return json.Marshal(out)
}

// Results is the complete outcome of one Run
type Results struct {
	Strategy       string
	Symbol         string
	PriceColumn    types.PriceColumn
	InitialCapital float64
	Rows           []ResultRow
	Trades         []Trade
	SkippedEntries int
}

func (r *Results) computeReturns() {
	for i := range r.Rows {
		r.Rows[i].Return = math.NaN()
		if i == 0 {
			continue
		}
		prev := r.Rows[i-1].PortfolioValue
		if prev == 0 {
			continue
		}
		r.Rows[i].Return = r.Rows[i].PortfolioValue/prev - 1
	}
}

// Returns returns the defined per-bar returns, skipping the first row
func (r *Results) Returns() []float64 {
	out := make([]float64, 0, len(r.Rows))
	for _, row := range r.Rows {
		if !math.IsNaN(row.Return) {
			out = append(out, row.Return)
		}
	}
	return out
}

// EquityCurve returns the portfolio value sampled once per bar
func (r *Results) EquityCurve() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.EquityCurve
	}
	return out
}

// FinalValue is the last portfolio value, or the initial capital for an empty run
func (r *Results) FinalValue() float64 {
	if len(r.Rows) == 0 {
		return r.InitialCapital
	}
	return r.Rows[len(r.Rows)-1].PortfolioValue
}

// FinalCapital is the cash balance after the last bar
func (r *Results) FinalCapital() float64 {
	if len(r.Rows) == 0 {
		return r.InitialCapital
	}
	return r.Rows[len(r.Rows)-1].Capital
}
