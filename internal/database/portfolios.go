package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

// EnsurePortfolio creates the portfolio if it does not exist and reports whether it was created
func (db *DB) EnsurePortfolio(ctx context.Context, owner, kind string) (bool, error) {
	query := `
		INSERT INTO portfolios (owner, kind, total_profit, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (owner, kind) DO NOTHING
	`
	result, err := db.conn.ExecContext(ctx, query, owner, kind, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to create portfolio: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// GetPortfolio loads a portfolio and its positions
func (db *DB) GetPortfolio(ctx context.Context, owner, kind string) (*models.Portfolio, error) {
	query := `
		SELECT id, owner, kind, total_profit, created_at, updated_at
		FROM portfolios
		WHERE owner = $1 AND kind = $2
	`
	var p models.Portfolio
	err := db.conn.QueryRowContext(ctx, query, owner, kind).Scan(
		&p.ID, &p.Owner, &p.Kind, &p.TotalProfit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s/%s", ErrPortfolioNotFound, owner, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	positions, err := db.GetPositions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Positions = positions
	return &p, nil
}

// GetPositions returns a portfolio's positions in insertion order
func (db *DB) GetPositions(ctx context.Context, portfolioID int) ([]*models.Position, error) {
	query := `
		SELECT id, portfolio_id, symbol, quantity, buy_price, current_price, sector, profit,
		       created_at, updated_at
		FROM positions
		WHERE portfolio_id = $1
		ORDER BY id
	`
	rows, err := db.conn.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []*models.Position{}
	for rows.Next() {
		var p models.Position
		var sector sql.NullString
		if err := rows.Scan(
			&p.ID, &p.PortfolioID, &p.Symbol, &p.Quantity, &p.BuyPrice, &p.CurrentPrice, &sector, &p.Profit,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if sector.Valid {
			p.Sector = sector.String
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

// ReplacePositions replaces every position of a portfolio and its total profit in one transaction
func (db *DB) ReplacePositions(ctx context.Context, portfolioID int, positions []*models.Position, totalProfit decimal.Decimal) error {
	return db.replace(ctx, portfolioID, positions, totalProfit, nil)
}

// ApplyTrade replaces the positions and records the trade that produced them atomically
func (db *DB) ApplyTrade(ctx context.Context, portfolioID int, positions []*models.Position, totalProfit decimal.Decimal, trade *models.Trade) error {
	return db.replace(ctx, portfolioID, positions, totalProfit, trade)
}

func (db *DB) replace(ctx context.Context, portfolioID int, positions []*models.Position, totalProfit decimal.Decimal, trade *models.Trade) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE portfolio_id = $1`, portfolioID); err != nil {
		return fmt.Errorf("failed to delete existing positions: %w", err)
	}

	insert := `
		INSERT INTO positions (
			portfolio_id, symbol, quantity, buy_price, current_price, sector, profit,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := time.Now()
	for _, p := range positions {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		err := tx.QueryRowContext(ctx, insert,
			portfolioID, p.Symbol, p.Quantity, p.BuyPrice, p.CurrentPrice, nullString(p.Sector), p.Profit,
			createdAt, now,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Symbol, err)
		}
		p.PortfolioID = portfolioID
		p.CreatedAt = createdAt
		p.UpdatedAt = now
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE portfolios SET total_profit = $2, updated_at = $3 WHERE id = $1`,
		portfolioID, totalProfit, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio total: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: id %d", ErrPortfolioNotFound, portfolioID)
	}

	if trade != nil {
		trade.PortfolioID = portfolioID
		if err := insertTrade(ctx, tx, trade); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
