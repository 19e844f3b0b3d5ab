package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

var (
	demoWalletBalance = decimal.NewFromInt(150000)
	demoWalletCards   = []string{"VISA Platinum ****1234", "HDFC Debit ****5678"}
)

type seedTransaction struct {
	kind   string
	amount int64
	name   string
	at     time.Time
}

// DemoWalletTransactions is the starter ledger: four months of 2025 plus three entries inside the
// 30 days before now.
func DemoWalletTransactions(now time.Time) []*models.WalletTransaction {
	date := func(month time.Month, day, hour, min int) time.Time {
		return time.Date(2025, month, day, hour, min, 0, 0, time.UTC)
	}
	seeds := []seedTransaction{
		{models.WalletIncome, 20000, "Company Salary", date(time.January, 5, 10, 30)},
		{models.WalletExpense, 5000, "Amazon Shopping", date(time.January, 10, 15, 45)},
		{models.WalletSaving, 3000, "FD Investment", date(time.January, 15, 9, 0)},
		{models.WalletIncome, 21000, "Company Salary", date(time.February, 5, 10, 15)},
		{models.WalletExpense, 6000, "Netflix + Food", date(time.February, 12, 18, 30)},
		{models.WalletSaving, 3500, "Mutual Funds", date(time.February, 20, 11, 45)},
		{models.WalletIncome, 22000, "Freelance", date(time.March, 6, 9, 0)},
		{models.WalletExpense, 7000, "Electricity + Rent", date(time.March, 9, 16, 10)},
		{models.WalletSaving, 4000, "SIP Plan", date(time.March, 15, 8, 40)},
		{models.WalletIncome, 25000, "Company Salary", date(time.April, 3, 10, 0)},
		{models.WalletExpense, 8000, "Travel", date(time.April, 15, 12, 30)},
		{models.WalletSaving, 5000, "Stocks", date(time.April, 20, 19, 0)},
		{models.WalletIncome, 26000, "Company Salary", now.AddDate(0, 0, -10)},
		{models.WalletExpense, 9000, "Groceries", now.AddDate(0, 0, -8)},
		{models.WalletSaving, 6000, "Gold Savings", now.AddDate(0, 0, -5)},
	}

	txs := make([]*models.WalletTransaction, 0, len(seeds))
	for _, s := range seeds {
		txs = append(txs, &models.WalletTransaction{
			Type:       s.kind,
			Amount:     decimal.NewFromInt(s.amount),
			Name:       s.name,
			OccurredAt: s.at,
		})
	}
	return txs
}

// DemoWalletGraph is the starter savings versus expenses series
func DemoWalletGraph() []models.GraphPoint {
	point := func(month string, savings, expenses int64) models.GraphPoint {
		return models.GraphPoint{Month: month, Savings: decimal.NewFromInt(savings), Expenses: decimal.NewFromInt(expenses)}
	}
	return []models.GraphPoint{
		point("Jan", 22000, 15000),
		point("Feb", 25000, 18000),
		point("Mar", 27000, 20000),
		point("Apr", 30000, 22000),
		point("May", 32000, 25000),
	}
}

// SeedDemoWallet creates the owner's wallet with the demo ledger and chart in one transaction.
// An existing wallet is left untouched and false is returned.
func (db *DB) SeedDemoWallet(ctx context.Context, owner string, now time.Time) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO wallet_users (owner, balance, cards)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner) DO NOTHING
		RETURNING id
	`, owner, demoWalletBalance, pq.Array(demoWalletCards)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create wallet: %w", err)
	}

	for _, t := range DemoWalletTransactions(now) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_transactions (user_id, type, amount, name, occurred_at)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, t.Type, t.Amount, t.Name, t.OccurredAt); err != nil {
			return false, fmt.Errorf("failed to seed wallet transaction %q: %w", t.Name, err)
		}
	}

	for i, p := range DemoWalletGraph() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_graph_points (user_id, position, month, savings, expenses)
			VALUES ($1, $2, $3, $4, $5)
		`, userID, i, p.Month, p.Savings, p.Expenses); err != nil {
			return false, fmt.Errorf("failed to seed wallet graph: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
