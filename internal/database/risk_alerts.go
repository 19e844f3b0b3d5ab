package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/portfolio-advisor/internal/models"
)

// CreateRiskAlert persists a triggered risk alert. A portfolio raises each alert type at most once
// per symbol and UTC day; created is false when the alert was already on record for that day.
func (db *DB) CreateRiskAlert(ctx context.Context, a *models.RiskAlert) (bool, error) {
	query := `
		INSERT INTO risk_alerts (
			portfolio_id, alert_type, severity, symbol, message, action, published, alert_date, triggered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (portfolio_id, alert_type, symbol, alert_date) DO NOTHING
		RETURNING id
	`
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = time.Now()
	}
	err := db.conn.QueryRowContext(ctx, query,
		a.PortfolioID, a.AlertType, a.Severity, a.Symbol, a.Message, a.Action, a.Published,
		truncateDay(a.TriggeredAt), a.TriggeredAt,
	).Scan(&a.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create risk alert: %w", err)
	}
	return true, nil
}

// MarkRiskAlertPublished flags an alert as delivered to the event stream
func (db *DB) MarkRiskAlertPublished(ctx context.Context, id int) error {
	result, err := db.conn.ExecContext(ctx, `UPDATE risk_alerts SET published = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark risk alert published: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("risk alert not found: %d", id)
	}
	return nil
}

// GetRecentRiskAlerts returns the newest alerts across all portfolios
func (db *DB) GetRecentRiskAlerts(ctx context.Context, limit int) ([]*models.RiskAlert, error) {
	query := `
		SELECT id, portfolio_id, alert_type, severity, symbol, message, action, published, triggered_at
		FROM risk_alerts
		ORDER BY triggered_at DESC, id DESC
		LIMIT $1
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*models.RiskAlert{}
	for rows.Next() {
		var a models.RiskAlert
		if err := rows.Scan(
			&a.ID, &a.PortfolioID, &a.AlertType, &a.Severity, &a.Symbol, &a.Message, &a.Action,
			&a.Published, &a.TriggeredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan risk alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk alerts: %w", err)
	}
	return alerts, nil
}
