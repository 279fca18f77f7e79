package strategy

import (
	"testing"

	"github.com/ducminhle1904/quant-backtester/internal/sizing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"mean_reversion", "MeanReversion"},
		{"MeanReversion", "MeanReversion"},
		{"momentum", "Momentum"},
		{" pairs ", "PairsTrading"},
		{"hedge", "Hedge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Config{Name: tt.name})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.Name())
		})
	}
}

func TestNewAppliesParameters(t *testing.T) {
	s, err := New(Config{
		Name: "mean_reversion",
		Parameters: map[string]float64{
			"lookback_period": 10,
			"entry_threshold": 1.5,
		},
	})
	require.NoError(t, err)

	mr := s.(*MeanReversion)
	assert.Equal(t, 10, mr.LookbackPeriod)
	assert.Equal(t, 1.5, mr.EntryThreshold)
	assert.Equal(t, 0.5, mr.ExitThreshold)
	assert.Nil(t, mr.Sizer)
}

func TestNewWithSizing(t *testing.T) {
	cfg := sizing.DefaultConfig()
	cfg.Method = "fixed_fractional"

	s, err := New(Config{Name: "hedge", Sizing: &cfg})
	require.NoError(t, err)
	require.NotNil(t, s.(*Hedge).Sizer)
	assert.Equal(t, "fixed_fractional", s.(*Hedge).Sizer.Name())

	cfg.Method = "unknown"
	_, err = New(Config{Name: "hedge", Sizing: &cfg})
	assert.Error(t, err)
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(Config{Name: "grid"})
	assert.ErrorContains(t, err, "unknown strategy")

	_, err = New(Config{Name: "momentum", Parameters: map[string]float64{"macd_fast": 30}})
	assert.Error(t, err)

	_, err = New(Config{Name: "pairs_trading", Parameters: map[string]float64{"lookback_period": 1}})
	assert.Error(t, err)
}
