package sizing

// maxKellyFraction caps any Kelly bet at half the capital
const maxKellyFraction = 0.5

// Kelly sizes by a fraction of the Kelly-optimal bet. WinProbability and
// WinLossRatio seed the inputs it builds for the classic formula.
type Kelly struct {
	Fraction       float64
	WinProbability float64
	WinLossRatio   float64
}

// NewKelly creates a fractional Kelly sizer (0.25 = quarter Kelly) with
// coin-flip win statistics
func NewKelly(fraction float64) *Kelly {
	return &Kelly{
		Fraction:       fraction,
		WinProbability: DefaultWinProbability,
		WinLossRatio:   DefaultWinLossRatio,
	}
}

// WithWinStatistics sets the win probability and win/loss ratio
func (k *Kelly) WithWinStatistics(p, b float64) *Kelly {
	k.WinProbability = p
	k.WinLossRatio = b
	return k
}

// NewInput builds an input carrying the sizer's win statistics
func (k *Kelly) NewInput(capital, price float64) SizingInput {
	in := NewInput(capital, price)
	in.WinProbability = k.WinProbability
	in.WinLossRatio = k.WinLossRatio
	return in
}

func (k *Kelly) Name() string { return "kelly" }

// BetFraction returns the share of capital to commit. With both expected
// return and volatility known it uses er/vol²; otherwise the classic
// (p·b − q)/b formula on the win statistics.
func (k *Kelly) BetFraction(in SizingInput) float64 {
	if in.ExpectedReturn != nil && in.Volatility != nil {
		vol := *in.Volatility
		if !(vol > 0) {
			return 0
		}
		f := *in.ExpectedReturn / (vol * vol)
		return clip(f*k.Fraction, 0, maxKellyFraction)
	}

	b := in.WinLossRatio
	if b <= 0 {
		return 0
	}
	p := in.WinProbability
	f := (p*b - (1 - p)) / b
	return clip(f, 0, maxKellyFraction) * k.Fraction
}

func (k *Kelly) Size(in SizingInput) float64 {
	return toQuantity(in.Capital*k.BetFraction(in), in.Price)
}
