package analysis

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a computation is handed a position list it cannot work with:
// an empty list where one is required, a zero-valued portfolio, or a malformed holding.
var ErrInvalidInput = errors.New("invalid input")

// DefaultSector is assigned to holdings that carry no sector label.
const DefaultSector = "Tech"

// Holding is the analysis view of one position: plain floats, no storage concerns.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	Sector       string  `json:"sector,omitempty"`
}

// CurrentValue is quantity times the latest price
func (h Holding) CurrentValue() float64 {
	return h.Quantity * h.CurrentPrice
}

// Investment is quantity times the cost basis
func (h Holding) Investment() float64 {
	return h.Quantity * h.BuyPrice
}

// Profit is the unrealized profit of the holding
func (h Holding) Profit() float64 {
	return (h.CurrentPrice - h.BuyPrice) * h.Quantity
}

// PnLPercent is the unrealized return on the cost basis, in percent
func (h Holding) PnLPercent() float64 {
	if h.BuyPrice == 0 {
		return 0
	}
	return (h.CurrentPrice - h.BuyPrice) / h.BuyPrice * 100
}

// SectorOrDefault returns the sector label used for grouping
func (h Holding) SectorOrDefault() string {
	if h.Sector == "" {
		return DefaultSector
	}
	return h.Sector
}

// ValidateHoldings checks the per-holding invariants shared by every computation in this package.
// An empty list is valid here; callers that need a non-empty list check for it themselves.
func ValidateHoldings(holdings []Holding) error {
	seen := make(map[string]struct{}, len(holdings))
	for i, h := range holdings {
		if h.Symbol == "" {
			return fmt.Errorf("%w: position %d has no symbol", ErrInvalidInput, i)
		}
		if _, dup := seen[h.Symbol]; dup {
			return fmt.Errorf("%w: duplicate position for %s", ErrInvalidInput, h.Symbol)
		}
		seen[h.Symbol] = struct{}{}

		if h.Quantity < 0 || math.IsNaN(h.Quantity) {
			return fmt.Errorf("%w: %s has negative quantity", ErrInvalidInput, h.Symbol)
		}
		if h.BuyPrice <= 0 {
			return fmt.Errorf("%w: %s buy price must be positive", ErrInvalidInput, h.Symbol)
		}
		if h.CurrentPrice < 0 {
			return fmt.Errorf("%w: %s has negative current price", ErrInvalidInput, h.Symbol)
		}
	}
	return nil
}

// totalValue sums current value and rejects a portfolio worth nothing.
func totalValue(holdings []Holding) (float64, error) {
	var total float64
	for _, h := range holdings {
		total += h.CurrentValue()
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: total portfolio value is zero", ErrInvalidInput)
	}
	return total, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
