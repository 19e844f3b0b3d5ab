package models

import "time"

// Event types
const (
	EventPortfolioUpdated = "PORTFOLIO_UPDATED"
	EventRiskAlert        = "RISK_ALERT"
	EventTradeRequested   = "TRADE_REQUESTED"
)

// PortfolioEvent is published after every change to a portfolio's positions
type PortfolioEvent struct {
	EventID   string     `json:"event_id"`
	EventType string     `json:"event_type"`
	Owner     string     `json:"username"`
	Kind      string     `json:"kind"`
	Portfolio *Portfolio `json:"portfolio,omitempty"`
	Trade     *Trade     `json:"trade,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// RiskAlertEvent is published when a risk limit is breached
type RiskAlertEvent struct {
	EventID   string     `json:"event_id"`
	EventType string     `json:"event_type"`
	Kind      string     `json:"kind"`
	Alert     *RiskAlert `json:"alert"`
	Timestamp time.Time  `json:"timestamp"`
}

// TradeCommandEvent asks the service to apply a trade
type TradeCommandEvent struct {
	EventType string           `json:"event_type"`
	CommandID string           `json:"command_id"`
	Source    string           `json:"source"`
	Timestamp string           `json:"timestamp"`
	Data      TradeCommandData `json:"data"`
}

// TradeCommandData carries the trade; numbers are strings to keep decimal precision
type TradeCommandData struct {
	Kind     string `json:"kind"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Sector   string `json:"sector,omitempty"`
}
