package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/portfolio-advisor/internal/models"
)

// UpsertSnapshot records the value of a portfolio for one day, replacing any earlier record for that day
func (db *DB) UpsertSnapshot(ctx context.Context, s *models.PortfolioSnapshot) error {
	query := `
		INSERT INTO portfolio_snapshots (
			portfolio_id, snapshot_date, total_value, total_investment, total_profit, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (portfolio_id, snapshot_date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			total_investment = EXCLUDED.total_investment,
			total_profit = EXCLUDED.total_profit
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRowContext(ctx, query,
		s.PortfolioID, truncateDay(s.Date), s.TotalValue, s.TotalInvestment, s.TotalProfit, now,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	s.CreatedAt = now
	return nil
}

// GetSnapshot returns the snapshot of a portfolio for a given day, or nil if none was recorded
func (db *DB) GetSnapshot(ctx context.Context, portfolioID int, date time.Time) (*models.PortfolioSnapshot, error) {
	query := `
		SELECT id, portfolio_id, snapshot_date, total_value, total_investment, total_profit, created_at
		FROM portfolio_snapshots
		WHERE portfolio_id = $1 AND snapshot_date = $2
	`
	var s models.PortfolioSnapshot
	err := db.conn.QueryRowContext(ctx, query, portfolioID, truncateDay(date)).Scan(
		&s.ID, &s.PortfolioID, &s.Date, &s.TotalValue, &s.TotalInvestment, &s.TotalProfit, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
