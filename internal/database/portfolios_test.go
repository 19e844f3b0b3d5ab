package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/portfolio-advisor/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{conn: sqlDB}, mock
}

func TestGetPortfolio_LoadsPositions(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM portfolios").
		WithArgs("soham", models.KindStocks).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "kind", "total_profit", "created_at", "updated_at"}).
			AddRow(1, "soham", models.KindStocks, "1000", now, now))
	mock.ExpectQuery("SELECT (.+) FROM positions").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "portfolio_id", "symbol", "quantity", "buy_price", "current_price", "sector", "profit",
			"created_at", "updated_at",
		}).
			AddRow(10, 1, "AAPL", "10", "150", "180", "Tech", "300", now, now).
			AddRow(11, 1, "XOM", "5", "100", "90", nil, "-50", now, now))

	p, err := db.GetPortfolio(context.Background(), "soham", models.KindStocks)
	require.NoError(t, err)

	assert.Equal(t, 1, p.ID)
	assert.True(t, p.TotalProfit.Equal(decimal.NewFromInt(1000)))
	require.Len(t, p.Positions, 2)
	assert.Equal(t, "AAPL", p.Positions[0].Symbol)
	assert.Equal(t, "Tech", p.Positions[0].Sector)
	assert.Equal(t, "", p.Positions[1].Sector)
	assert.True(t, p.Positions[1].Profit.Equal(decimal.NewFromInt(-50)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPortfolio_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM portfolios").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "kind", "total_profit", "created_at", "updated_at"}))

	_, err := db.GetPortfolio(context.Background(), "nobody", models.KindCrypto)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPortfolioNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsurePortfolio(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO portfolios").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO portfolios").WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := db.EnsurePortfolio(context.Background(), "soham", models.KindStocks)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.EnsurePortfolio(context.Background(), "soham", models.KindStocks)
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePositions_Success(t *testing.T) {
	db, mock := newMockDB(t)

	positions := []*models.Position{
		{Symbol: "AAPL", Quantity: decimal.NewFromInt(10), BuyPrice: decimal.NewFromInt(150), CurrentPrice: decimal.NewFromInt(180)},
		{Symbol: "TSLA", Quantity: decimal.NewFromInt(5), BuyPrice: decimal.NewFromInt(600), CurrentPrice: decimal.NewFromInt(650)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery("INSERT INTO positions").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery("INSERT INTO positions").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))
	mock.ExpectExec("UPDATE portfolios SET total_profit").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.ReplacePositions(context.Background(), 7, positions, decimal.NewFromInt(550))
	require.NoError(t, err)

	assert.Equal(t, 101, positions[0].ID)
	assert.Equal(t, 102, positions[1].ID)
	assert.Equal(t, 7, positions[0].PortfolioID)
	assert.False(t, positions[0].CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePositions_EmptyListClearsPortfolio(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE portfolios SET total_profit").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.ReplacePositions(context.Background(), 7, nil, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePositions_InsertFailsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	positions := []*models.Position{
		{Symbol: "AAPL", Quantity: decimal.NewFromInt(1), BuyPrice: decimal.NewFromInt(100), CurrentPrice: decimal.NewFromInt(100)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO positions").WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := db.ReplacePositions(context.Background(), 7, positions, decimal.Zero)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert position AAPL")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePositions_DeleteFailsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnError(errors.New("delete failed"))
	mock.ExpectRollback()

	err := db.ReplacePositions(context.Background(), 7, nil, decimal.Zero)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete existing positions")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePositions_UnknownPortfolio(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE portfolios SET total_profit").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.ReplacePositions(context.Background(), 99, nil, decimal.Zero)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPortfolioNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTrade_RecordsTradeInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	positions := []*models.Position{
		{Symbol: "AAPL", Quantity: decimal.NewFromInt(15), BuyPrice: decimal.NewFromInt(160), CurrentPrice: decimal.NewFromInt(180)},
	}
	trade := &models.Trade{
		CommandID: "cmd-1",
		Symbol:    "AAPL",
		Side:      models.TradeTypeBuy,
		Quantity:  decimal.NewFromInt(5),
		Price:     decimal.NewFromInt(180),
		TotalCost: decimal.NewFromInt(900),
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO positions").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec("UPDATE portfolios SET total_profit").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO portfolio_trades").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	err := db.ApplyTrade(context.Background(), 3, positions, decimal.NewFromInt(300), trade)
	require.NoError(t, err)

	assert.Equal(t, 42, trade.ID)
	assert.Equal(t, 3, trade.PortfolioID)
	assert.False(t, trade.ExecutedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTrade_DuplicateCommandRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM positions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE portfolios SET total_profit").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO portfolio_trades").WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	err := db.ApplyTrade(context.Background(), 3, nil, decimal.Zero, &models.Trade{CommandID: "cmd-1", Symbol: "AAPL", Side: models.TradeTypeSell})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create trade")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemoPositions(t *testing.T) {
	stocks := DemoPositions(models.KindStocks)
	require.Len(t, stocks, 3)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
	assert.True(t, stocks[0].Profit.Equal(decimal.NewFromInt(300)))

	crypto := DemoPositions(models.KindCrypto)
	require.Len(t, crypto, 3)
	assert.Equal(t, "BTC", crypto[0].Symbol)
	assert.True(t, crypto[0].Profit.Equal(decimal.NewFromInt(2500)))

	assert.Empty(t, DemoPositions("bonds"))
}

func TestPortfolioStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	t.Run("seed creates both portfolios once", func(t *testing.T) {
		testDB.TruncateAll(t)

		seeded, err := testDB.SeedDemoPortfolios(ctx, "soham")
		require.NoError(t, err)
		assert.Equal(t, 2, seeded)

		seeded, err = testDB.SeedDemoPortfolios(ctx, "soham")
		require.NoError(t, err)
		assert.Equal(t, 0, seeded)

		p, err := testDB.GetPortfolio(ctx, "soham", models.KindStocks)
		require.NoError(t, err)
		require.Len(t, p.Positions, 3)
		assert.Equal(t, "AAPL", p.Positions[0].Symbol)
		assert.True(t, p.TotalProfit.Equal(decimal.NewFromInt(1150)))
	})

	t.Run("replace is a full replacement", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.EnsurePortfolio(ctx, "soham", models.KindCrypto)
		require.NoError(t, err)
		p, err := testDB.GetPortfolio(ctx, "soham", models.KindCrypto)
		require.NoError(t, err)
		assert.Empty(t, p.Positions)

		first := DemoPositions(models.KindCrypto)
		require.NoError(t, testDB.ReplacePositions(ctx, p.ID, first, decimal.NewFromInt(3700)))

		second := []*models.Position{
			{Symbol: "ETH", Quantity: decimal.NewFromInt(1), BuyPrice: decimal.NewFromInt(3000), CurrentPrice: decimal.NewFromInt(3500), Sector: "L1", Profit: decimal.NewFromInt(500)},
		}
		require.NoError(t, testDB.ReplacePositions(ctx, p.ID, second, decimal.NewFromInt(500)))

		got, err := testDB.GetPortfolio(ctx, "soham", models.KindCrypto)
		require.NoError(t, err)
		require.Len(t, got.Positions, 1)
		assert.Equal(t, "ETH", got.Positions[0].Symbol)
		assert.Equal(t, "L1", got.Positions[0].Sector)
		assert.True(t, got.TotalProfit.Equal(decimal.NewFromInt(500)))
	})

	t.Run("trades snapshots and alerts", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.EnsurePortfolio(ctx, "soham", models.KindStocks)
		require.NoError(t, err)
		p, err := testDB.GetPortfolio(ctx, "soham", models.KindStocks)
		require.NoError(t, err)

		trade := &models.Trade{
			CommandID: "cmd-42",
			Symbol:    "AAPL",
			Side:      models.TradeTypeBuy,
			Quantity:  decimal.NewFromInt(10),
			Price:     decimal.NewFromInt(150),
			TotalCost: decimal.NewFromInt(1500),
		}
		positions := []*models.Position{
			{Symbol: "AAPL", Quantity: decimal.NewFromInt(10), BuyPrice: decimal.NewFromInt(150), CurrentPrice: decimal.NewFromInt(150)},
		}
		require.NoError(t, testDB.ApplyTrade(ctx, p.ID, positions, decimal.Zero, trade))

		exists, err := testDB.TradeExistsByCommandID(ctx, "cmd-42")
		require.NoError(t, err)
		assert.True(t, exists)

		err = testDB.ApplyTrade(ctx, p.ID, positions, decimal.Zero, &models.Trade{
			CommandID: "cmd-42", Symbol: "AAPL", Side: models.TradeTypeBuy,
			Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1), TotalCost: decimal.NewFromInt(1),
		})
		require.Error(t, err)

		trades, err := testDB.GetTradesByPortfolio(ctx, p.ID, 10)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, "cmd-42", trades[0].CommandID)

		day := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
		snap := &models.PortfolioSnapshot{PortfolioID: p.ID, Date: day, TotalValue: decimal.NewFromInt(1500), TotalInvestment: decimal.NewFromInt(1500)}
		require.NoError(t, testDB.UpsertSnapshot(ctx, snap))
		snap.TotalValue = decimal.NewFromInt(1600)
		require.NoError(t, testDB.UpsertSnapshot(ctx, snap))

		got, err := testDB.GetSnapshot(ctx, p.ID, day)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.TotalValue.Equal(decimal.NewFromInt(1600)))

		missing, err := testDB.GetSnapshot(ctx, p.ID, day.AddDate(0, 0, -1))
		require.NoError(t, err)
		assert.Nil(t, missing)

		alert := &models.RiskAlert{PortfolioID: p.ID, AlertType: "CONCENTRATION_RISK", Severity: "HIGH", Symbol: "AAPL", Message: "AAPL represents 100.0% of portfolio", Action: "REDUCE_POSITION"}
		created, err := testDB.CreateRiskAlert(ctx, alert)
		require.NoError(t, err)
		assert.True(t, created)
		require.NoError(t, testDB.MarkRiskAlertPublished(ctx, alert.ID))

		again := *alert
		again.ID = 0
		again.Published = false
		created, err = testDB.CreateRiskAlert(ctx, &again)
		require.NoError(t, err)
		assert.False(t, created)

		alerts, err := testDB.GetRecentRiskAlerts(ctx, 5)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.True(t, alerts[0].Published)
		assert.Equal(t, "AAPL", alerts[0].Symbol)
	})
}
