package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"portfolios",
			"positions",
			"portfolio_trades",
			"portfolio_snapshots",
			"risk_alerts",
			"wallet_users",
			"wallet_transactions",
			"wallet_graph_points",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("positions table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":            "integer",
			"portfolio_id":  "integer",
			"symbol":        "character varying",
			"quantity":      "numeric",
			"buy_price":     "numeric",
			"current_price": "numeric",
			"sector":        "character varying",
			"profit":        "numeric",
			"created_at":    "timestamp with time zone",
			"updated_at":    "timestamp with time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'positions' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in positions table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("position quantity must be positive", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(`INSERT INTO portfolios (owner, kind) VALUES ('check', 'stocks')`)
		require.NoError(t, err)

		_, err = testDB.GetRawConn().Exec(`
			INSERT INTO positions (portfolio_id, symbol, quantity, buy_price, current_price)
			SELECT id, 'AAPL', 0, 100, 100 FROM portfolios WHERE owner = 'check'
		`)
		assert.Error(t, err)
	})

	t.Run("portfolio kind is constrained", func(t *testing.T) {
		_, err := testDB.GetRawConn().Exec(`INSERT INTO portfolios (owner, kind) VALUES ('check', 'bonds')`)
		assert.Error(t, err)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, testDB.RunMigrations(migrationsDir()))
	})
}
