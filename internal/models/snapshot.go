package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is the end-of-day value of a portfolio
type PortfolioSnapshot struct {
	ID              int             `json:"id"`
	PortfolioID     int             `json:"portfolio_id"`
	Date            time.Time       `json:"date"`
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	CreatedAt       time.Time       `json:"created_at"`
}
