// Package testutil opens migrated in-memory databases for package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/database"
)

// OpenDB returns an in-memory SQLite database carrying the production schema.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.Open(database.SQLite, ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite, zap.NewNop()))
	return db
}
