package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet transaction types
const (
	WalletIncome  = "income"
	WalletExpense = "expense"
	WalletSaving  = "saving"
)

// ValidWalletType reports whether t is a supported wallet transaction type
func ValidWalletType(t string) bool {
	return t == WalletIncome || t == WalletExpense || t == WalletSaving
}

// WalletUser is the owner's wallet: balance and payment cards
type WalletUser struct {
	ID        int             `json:"id"`
	Owner     string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	Cards     []string        `json:"cards"`
	CreatedAt time.Time       `json:"created_at"`
}

// WalletTransaction is one income, expense or saving entry
type WalletTransaction struct {
	ID         int             `json:"id"`
	UserID     int             `json:"user_id"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// WalletSummary totals each transaction type since a point in time
type WalletSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Saving  decimal.Decimal `json:"saving"`
	Since   time.Time       `json:"since"`
}

// MonthlyAmount is the sum of all transaction amounts booked in one calendar month
type MonthlyAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// GraphPoint is one month of the savings versus expenses chart
type GraphPoint struct {
	Month    string          `json:"month"`
	Savings  decimal.Decimal `json:"savings"`
	Expenses decimal.Decimal `json:"expenses"`
}
