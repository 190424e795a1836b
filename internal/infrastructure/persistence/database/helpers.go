package database

import (
	"strings"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// CheckAndLogSlowQuery reports query on the slow-query channel when duration
// exceeds the configured threshold. BATCH_ operations get three times the budget.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, db *DB, query string, duration time.Duration) {
	if db == nil || db.SlowQueryThreshold <= 0 {
		return
	}
	threshold := db.SlowQueryThreshold
	if strings.HasPrefix(query, "BATCH_") {
		threshold *= 3
	}
	if duration > threshold {
		logger.LogSlowQuery(query, duration)
	}
}

// Placeholders returns n comma separated bind markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
