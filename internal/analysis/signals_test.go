package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateExit_Rules(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		daysHeld   int
		decision   string
		confidence int
	}{
		{"take profit above 15%", 116, 3, DecisionSell, 80},
		{"exactly 15% holds", 115, 3, DecisionHold, 70},
		{"stop loss below -8%", 91, 3, DecisionSell, 85},
		{"exactly -8% holds", 92, 3, DecisionHold, 70},
		{"long hold with profit", 106, 91, DecisionSell, 75},
		{"90 days is not long", 106, 90, DecisionHold, 70},
		{"long hold without enough profit", 105, 200, DecisionHold, 70},
		{"stop loss wins over long hold", 80, 200, DecisionSell, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := EvaluateExit(Holding{Symbol: "AAPL", Quantity: 10, BuyPrice: 100, CurrentPrice: tt.current}, tt.daysHeld)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, s.Decision)
			assert.Equal(t, tt.confidence, s.Confidence)
			assert.Equal(t, tt.daysHeld, s.DaysHeld)
			assert.Equal(t, "Monitor for 15% gain or -8% stop loss", s.Target)
		})
	}
}

func TestEvaluateExit_Fields(t *testing.T) {
	s, err := EvaluateExit(Holding{Symbol: "TATASTEEL", Quantity: 20, BuyPrice: 110, CurrentPrice: 140}, 10)
	require.NoError(t, err)
	assert.Equal(t, "TATASTEEL", s.Symbol)
	assert.Equal(t, 27.27, s.PnLPercent)
	assert.Equal(t, 140.0, s.CurrentPrice)
	assert.Equal(t, "Taking profit at 15% gain. Good risk-reward achieved.", s.Reason)
	assert.False(t, s.GeneratedAt.IsZero())
}

func TestEvaluateExit_InvalidInput(t *testing.T) {
	_, err := EvaluateExit(Holding{Symbol: "X", Quantity: 1, BuyPrice: 0, CurrentPrice: 10}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = EvaluateExit(Holding{Symbol: "X", Quantity: 1, BuyPrice: 10, CurrentPrice: -1}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = EvaluateExit(Holding{Symbol: "X", Quantity: 1, BuyPrice: 10, CurrentPrice: 10}, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateExitSignals(t *testing.T) {
	holdings := []Holding{
		{Symbol: "AAPL", Quantity: 10, BuyPrice: 150, CurrentPrice: 180},
		{Symbol: "TSLA", Quantity: 5, BuyPrice: 600, CurrentPrice: 650},
	}
	signals, err := GenerateExitSignals(holdings, []int{5, 120})
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, DecisionSell, signals[0].Decision)
	// TSLA is up 8.33% after 120 days
	assert.Equal(t, DecisionSell, signals[1].Decision)
	assert.Equal(t, 75, signals[1].Confidence)

	empty, err := GenerateExitSignals(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = GenerateExitSignals(holdings, []int{1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
