package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade side constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Trade is one executed buy or sell in a portfolio's transaction history
type Trade struct {
	ID          int             `json:"id"`
	PortfolioID int             `json:"portfolio_id"`
	CommandID   string          `json:"command_id,omitempty"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	ExecutedAt  time.Time       `json:"executed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}
