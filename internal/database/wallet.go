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
	// ErrWalletNotFound is returned when the owner has no wallet
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletTransactionNotFound is returned when a transaction id does not belong to the owner
	ErrWalletTransactionNotFound = errors.New("wallet transaction not found")
)

// EnsureWalletUser creates the owner's wallet if it does not exist. It reports whether a row was created.
func (db *DB) EnsureWalletUser(ctx context.Context, owner string, balance decimal.Decimal, cards []string) (bool, error) {
	query := `
		INSERT INTO wallet_users (owner, balance, cards)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner) DO NOTHING
	`
	if cards == nil {
		cards = []string{}
	}
	result, err := db.conn.ExecContext(ctx, query, owner, balance, pq.Array(cards))
	if err != nil {
		return false, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// GetWalletUser loads the owner's wallet
func (db *DB) GetWalletUser(ctx context.Context, owner string) (*models.WalletUser, error) {
	query := `
		SELECT id, owner, balance, cards, created_at
		FROM wallet_users
		WHERE owner = $1
	`
	var u models.WalletUser
	err := db.conn.QueryRowContext(ctx, query, owner).Scan(
		&u.ID, &u.Owner, &u.Balance, pq.Array(&u.Cards), &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if u.Cards == nil {
		u.Cards = []string{}
	}
	return &u, nil
}

// CreateWalletTransaction books a transaction in the owner's wallet
func (db *DB) CreateWalletTransaction(ctx context.Context, owner string, t *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (user_id, type, amount, name, occurred_at, created_at)
		SELECT id, $2, $3, $4, $5, $6 FROM wallet_users WHERE owner = $1
		RETURNING id, user_id
	`
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}
	t.CreatedAt = time.Now()
	err := db.conn.QueryRowContext(ctx, query,
		owner, t.Type, t.Amount, t.Name, t.OccurredAt, t.CreatedAt,
	).Scan(&t.ID, &t.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrWalletNotFound, owner)
	}
	if err != nil {
		return fmt.Errorf("failed to create wallet transaction: %w", err)
	}
	return nil
}

// GetWalletTransactions returns the owner's transactions, newest first
func (db *DB) GetWalletTransactions(ctx context.Context, owner string, limit int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT t.id, t.user_id, t.type, t.amount, t.name, t.occurred_at, t.created_at
		FROM wallet_transactions t
		JOIN wallet_users u ON u.id = t.user_id
		WHERE u.owner = $1
		ORDER BY t.occurred_at DESC, t.id DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	txs := []*models.WalletTransaction{}
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Name, &t.OccurredAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}
	return txs, nil
}

// DeleteWalletTransaction removes one of the owner's transactions
func (db *DB) DeleteWalletTransaction(ctx context.Context, owner string, id int) error {
	query := `
		DELETE FROM wallet_transactions t
		USING wallet_users u
		WHERE t.user_id = u.id AND u.owner = $1 AND t.id = $2
	`
	result, err := db.conn.ExecContext(ctx, query, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete wallet transaction: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %d", ErrWalletTransactionNotFound, id)
	}
	return nil
}

// GetWalletSummary totals income, expense and saving booked at or after since
func (db *DB) GetWalletSummary(ctx context.Context, owner string, since time.Time) (*models.WalletSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'saving'), 0)
		FROM wallet_users u
		LEFT JOIN wallet_transactions t ON t.user_id = u.id AND t.occurred_at >= $2
		WHERE u.owner = $1
		GROUP BY u.id
	`
	s := models.WalletSummary{Since: since}
	err := db.conn.QueryRowContext(ctx, query, owner, since).Scan(&s.Income, &s.Expense, &s.Saving)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to summarize wallet: %w", err)
	}
	return &s, nil
}

// GetMonthlyTotals sums every transaction amount per calendar month (UTC), January first.
// Months from different years are grouped together.
func (db *DB) GetMonthlyTotals(ctx context.Context, owner string) ([]models.MonthlyAmount, error) {
	query := `
		SELECT EXTRACT(MONTH FROM t.occurred_at AT TIME ZONE 'UTC')::int AS month, SUM(t.amount)
		FROM wallet_transactions t
		JOIN wallet_users u ON u.id = t.user_id
		WHERE u.owner = $1
		GROUP BY month
		ORDER BY month
	`
	rows, err := db.conn.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	totals := []models.MonthlyAmount{}
	for rows.Next() {
		var month int
		var amount decimal.Decimal
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		totals = append(totals, models.MonthlyAmount{Month: monthName(month), Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly totals: %w", err)
	}
	return totals, nil
}

// GetWalletGraph returns the stored savings versus expenses series in chart order
func (db *DB) GetWalletGraph(ctx context.Context, owner string) ([]models.GraphPoint, error) {
	query := `
		SELECT g.month, g.savings, g.expenses
		FROM wallet_graph_points g
		JOIN wallet_users u ON u.id = g.user_id
		WHERE u.owner = $1
		ORDER BY g.position
	`
	rows, err := db.conn.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet graph: %w", err)
	}
	defer rows.Close()

	points := []models.GraphPoint{}
	for rows.Next() {
		var p models.GraphPoint
		if err := rows.Scan(&p.Month, &p.Savings, &p.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan graph point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet graph: %w", err)
	}
	return points, nil
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprintf("M%d", m)
	}
	return time.Month(m).String()[:3]
}
