// Package sizing converts capital and market context into an unsigned
// position quantity. Callers apply direction.
package sizing

// SizingInput carries everything a sizer may look at. Optional statistics
// are nil when unknown.
type SizingInput struct {
	Capital float64
	Price   float64

	// Annualized asset volatility
	Volatility *float64
	// Annualized expected return
	ExpectedReturn *float64
	// Annualized volatility of the surrounding portfolio
	PortfolioVolatility *float64

	WinProbability float64
	WinLossRatio   float64
}

// PositionSizer returns a quantity magnitude for the given input
type PositionSizer interface {
	Name() string
	Size(in SizingInput) float64
}

// Float returns a pointer to v, for filling optional SizingInput fields.
func Float(v float64) *float64 {
	return &v
}

// InputBuilder is implemented by sizers that carry their own statistics.
type InputBuilder interface {
	NewInput(capital, price float64) SizingInput
}

// InputFor builds the input s expects for one entry
func InputFor(s PositionSizer, capital, price float64) SizingInput {
	if b, ok := s.(InputBuilder); ok {
		return b.NewInput(capital, price)
	}
	return NewInput(capital, price)
}

// NewInput builds an input with the default win statistics.
func NewInput(capital, price float64) SizingInput {
	return SizingInput{
		Capital:        capital,
		Price:          price,
		WinProbability: DefaultWinProbability,
		WinLossRatio:   DefaultWinLossRatio,
	}
}

const (
	DefaultWinProbability = 0.5
	DefaultWinLossRatio   = 1.0
)

// toQuantity turns a position value into units at price
func toQuantity(value, price float64) float64 {
	if price <= 0 || value <= 0 {
		return 0
	}
	return value / price
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
