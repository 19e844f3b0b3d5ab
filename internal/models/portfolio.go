package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio kinds
const (
	KindStocks = "stocks"
	KindCrypto = "crypto"
)

// ValidKind reports whether kind names a supported portfolio
func ValidKind(kind string) bool {
	return kind == KindStocks || kind == KindCrypto
}

// Kinds lists every supported portfolio kind
func Kinds() []string {
	return []string{KindStocks, KindCrypto}
}

// Portfolio is a named collection of positions for one owner
type Portfolio struct {
	ID          int             `json:"id"`
	Owner       string          `json:"username"`
	Kind        string          `json:"kind"`
	Positions   []*Position     `json:"portfolio"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FindPosition returns the position for symbol, or nil
func (p *Portfolio) FindPosition(symbol string) *Position {
	for _, pos := range p.Positions {
		if pos.Symbol == symbol {
			return pos
		}
	}
	return nil
}

// RecalculateProfit refreshes every position's profit and the portfolio total
func (p *Portfolio) RecalculateProfit() {
	total := decimal.Zero
	for _, pos := range p.Positions {
		pos.RecalculateProfit()
		total = total.Add(pos.Profit)
	}
	p.TotalProfit = total
}

// TotalValue sums the current value of all positions
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.Positions {
		total = total.Add(pos.CurrentValue())
	}
	return total
}

// TotalInvestment sums the cost basis of all positions
func (p *Portfolio) TotalInvestment() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.Positions {
		total = total.Add(pos.Investment())
	}
	return total
}
