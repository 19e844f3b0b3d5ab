package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSector is the sector assumed for positions stored without one
const DefaultSector = "Tech"

// Position represents a current holding within a portfolio
type Position struct {
	ID           int             `json:"id"`
	PortfolioID  int             `json:"portfolio_id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sector       string          `json:"sector,omitempty"`
	Profit       decimal.Decimal `json:"profit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RecalculateProfit derives Profit from the current inputs
func (p *Position) RecalculateProfit() {
	p.Profit = p.CurrentPrice.Sub(p.BuyPrice).Mul(p.Quantity)
}

// CurrentValue is quantity times the latest price
func (p *Position) CurrentValue() decimal.Decimal {
	return p.Quantity.Mul(p.CurrentPrice)
}

// Investment is quantity times the cost basis
func (p *Position) Investment() decimal.Decimal {
	return p.Quantity.Mul(p.BuyPrice)
}
