// Package testdb opens a schema-initialized in-memory database for tests.
package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	schema "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

// New returns a fresh pure-Go SQLite database closed at test cleanup.
func New(t testing.TB) (*database.DB, *logging.ChanneledLogger) {
	t.Helper()
	logger := logging.NewDiscardLogger()

	db, err := database.Open(config.DatabaseConfig{
		Driver:             "sqlite",
		DSN:                ":memory:",
		SlowQueryThreshold: time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tc := schema.NewTableCreator()
	require.NoError(t, tc.CreateSchema(db.DB.DB))
	require.NoError(t, tc.SeedSettings(db.DB.DB, 12*time.Hour, 500, "FAQSection"))
	return db, logger
}
