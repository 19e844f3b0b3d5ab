package analysis

import (
	"fmt"
	"math"
	"time"
)

// Exit rule thresholds
const (
	TakeProfitPercent     = 15.0
	StopLossPercent       = -8.0
	LongHoldDays          = 90
	LongHoldProfitPercent = 5.0
)

// Signal decisions
const (
	DecisionSell = "SELL"
	DecisionHold = "HOLD"
)

const exitTarget = "Monitor for 15% gain or -8% stop loss"

// TradeSignal is a rule-based hold/sell decision for one position
type TradeSignal struct {
	Symbol       string    `json:"symbol"`
	Decision     string    `json:"decision"`
	Confidence   int       `json:"confidence"`
	Reason       string    `json:"reason"`
	Target       string    `json:"target"`
	CurrentPrice float64   `json:"current_price"`
	PnLPercent   float64   `json:"pnl_percent"`
	DaysHeld     int       `json:"days_held"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// EvaluateExit applies the exit rules in order: take profit above 15%, stop loss below -8%,
// then book gains on positions held more than 90 days and up more than 5%. Anything else holds.
func EvaluateExit(h Holding, daysHeld int) (*TradeSignal, error) {
	if h.BuyPrice <= 0 || math.IsNaN(h.CurrentPrice) || h.CurrentPrice < 0 {
		return nil, fmt.Errorf("%w: %s needs a positive buy price and a current price", ErrInvalidInput, h.Symbol)
	}
	if daysHeld < 0 {
		return nil, fmt.Errorf("%w: %s has negative days held", ErrInvalidInput, h.Symbol)
	}

	pnl := h.PnLPercent()
	signal := &TradeSignal{
		Symbol:       h.Symbol,
		Target:       exitTarget,
		CurrentPrice: h.CurrentPrice,
		PnLPercent:   round2(pnl),
		DaysHeld:     daysHeld,
		GeneratedAt:  time.Now(),
	}

	switch {
	case pnl > TakeProfitPercent:
		signal.Decision = DecisionSell
		signal.Reason = "Taking profit at 15% gain. Good risk-reward achieved."
		signal.Confidence = 80
	case pnl < StopLossPercent:
		signal.Decision = DecisionSell
		signal.Reason = "Stop loss triggered. Limiting downside risk."
		signal.Confidence = 85
	case daysHeld > LongHoldDays && pnl > LongHoldProfitPercent:
		signal.Decision = DecisionSell
		signal.Reason = "Long-term position showing profit. Time to book gains."
		signal.Confidence = 75
	default:
		signal.Decision = DecisionHold
		signal.Reason = "Position within acceptable range. Continuing to monitor."
		signal.Confidence = 70
	}
	return signal, nil
}

// GenerateExitSignals evaluates every holding; daysHeld is parallel to holdings.
// An empty portfolio yields an empty list.
func GenerateExitSignals(holdings []Holding, daysHeld []int) ([]*TradeSignal, error) {
	if len(daysHeld) != len(holdings) {
		return nil, fmt.Errorf("%w: %d holdings but %d holding periods", ErrInvalidInput, len(holdings), len(daysHeld))
	}
	signals := make([]*TradeSignal, 0, len(holdings))
	for i, h := range holdings {
		s, err := EvaluateExit(h, daysHeld[i])
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, nil
}
