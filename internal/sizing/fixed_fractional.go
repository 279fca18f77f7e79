package sizing

// FixedFractional commits a constant share of capital per position
type FixedFractional struct {
	Fraction float64
}

func NewFixedFractional(fraction float64) *FixedFractional {
	return &FixedFractional{Fraction: fraction}
}

func (f *FixedFractional) Name() string { return "fixed_fractional" }

func (f *FixedFractional) Size(in SizingInput) float64 {
	return toQuantity(in.Capital*f.Fraction, in.Price)
}
