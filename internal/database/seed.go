package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

type seedPosition struct {
	symbol       string
	quantity     string
	buyPrice     string
	currentPrice string
}

var demoPositions = map[string][]seedPosition{
	models.KindStocks: {
		{"AAPL", "10", "150", "180"},
		{"TSLA", "5", "600", "650"},
		{"TATASTEEL", "20", "110", "140"},
	},
	models.KindCrypto: {
		{"BTC", "0.5", "50000", "55000"},
		{"ETH", "2", "3000", "3500"},
		{"SOL", "10", "100", "120"},
	},
}

// DemoPositions builds the starter positions for a portfolio kind
func DemoPositions(kind string) []*models.Position {
	seeds := demoPositions[kind]
	positions := make([]*models.Position, 0, len(seeds))
	for _, s := range seeds {
		p := &models.Position{
			Symbol:       s.symbol,
			Quantity:     decimal.RequireFromString(s.quantity),
			BuyPrice:     decimal.RequireFromString(s.buyPrice),
			CurrentPrice: decimal.RequireFromString(s.currentPrice),
		}
		p.RecalculateProfit()
		positions = append(positions, p)
	}
	return positions
}

// SeedDemoPortfolios creates the owner's portfolios with demo positions.
// Portfolios that already exist are left untouched.
func (db *DB) SeedDemoPortfolios(ctx context.Context, owner string) (int, error) {
	seeded := 0
	for _, kind := range models.Kinds() {
		created, err := db.EnsurePortfolio(ctx, owner, kind)
		if err != nil {
			return seeded, err
		}
		if !created {
			continue
		}

		p, err := db.GetPortfolio(ctx, owner, kind)
		if err != nil {
			return seeded, err
		}
		p.Positions = DemoPositions(kind)
		p.RecalculateProfit()
		if err := db.ReplacePositions(ctx, p.ID, p.Positions, p.TotalProfit); err != nil {
			return seeded, fmt.Errorf("failed to seed %s portfolio: %w", kind, err)
		}
		seeded++
	}
	return seeded, nil
}
