package models

import "time"

// RiskAlert is a persisted portfolio risk-limit breach
type RiskAlert struct {
	ID          int       `json:"id"`
	PortfolioID int       `json:"portfolio_id"`
	AlertType   string    `json:"type"`
	Severity    string    `json:"severity"`
	Symbol      string    `json:"symbol,omitempty"`
	Message     string    `json:"message"`
	Action      string    `json:"action"`
	Published   bool      `json:"published"`
	TriggeredAt time.Time `json:"triggered_at"`
}
