package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/portfolio-advisor/internal/models"
)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateTrade records a trade outside of a position replacement
func (db *DB) CreateTrade(ctx context.Context, t *models.Trade) error {
	return insertTrade(ctx, db.conn, t)
}

func insertTrade(ctx context.Context, q queryRower, t *models.Trade) error {
	query := `
		INSERT INTO portfolio_trades (
			portfolio_id, command_id, symbol, side, quantity, price, total_cost, realized_pnl,
			executed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	now := time.Now()
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = now
	}

	err := q.QueryRowContext(ctx, query,
		t.PortfolioID, nullString(t.CommandID), t.Symbol, t.Side, t.Quantity, t.Price, t.TotalCost, t.RealizedPnl,
		t.ExecutedAt, now,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	t.CreatedAt = now
	return nil
}

// TradeExistsByCommandID checks whether a trade command was already applied
func (db *DB) TradeExistsByCommandID(ctx context.Context, commandID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM portfolio_trades WHERE command_id = $1)`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, commandID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}
	return exists, nil
}

// GetTradesByPortfolio returns the most recent trades of a portfolio
func (db *DB) GetTradesByPortfolio(ctx context.Context, portfolioID, limit int) ([]*models.Trade, error) {
	query := `
		SELECT id, portfolio_id, command_id, symbol, side, quantity, price, total_cost, realized_pnl,
		       executed_at, created_at
		FROM portfolio_trades
		WHERE portfolio_id = $1
		ORDER BY executed_at DESC, id DESC
		LIMIT $2
	`
	return scanTrades(db.conn.QueryContext(ctx, query, portfolioID, limit))
}

func scanTrades(rows *sql.Rows, err error) ([]*models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []*models.Trade{}
	for rows.Next() {
		var t models.Trade
		var commandID sql.NullString
		if err := rows.Scan(
			&t.ID, &t.PortfolioID, &commandID, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &t.TotalCost,
			&t.RealizedPnl, &t.ExecutedAt, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if commandID.Valid {
			t.CommandID = commandID.String
		}
		trades = append(trades, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	return trades, nil
}
