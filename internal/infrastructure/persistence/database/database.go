// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

// DB wraps the sqlx handle together with the settings repositories need for
// slow query reporting.
type DB struct {
	*sqlx.DB
	Driver             string
	SlowQueryThreshold time.Duration
}

// Open establishes the connection described by cfg and applies pool settings.
func Open(cfg config.DatabaseConfig, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", cfg.Driver)

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", cfg.Driver)
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if isMemory(cfg.DSN) {
		// Each connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	} else {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", cfg.Driver)
		return nil, fmt.Errorf("%s database ping failed: %w", cfg.Driver, err)
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", cfg.Driver, "duration", duration)
	db := &DB{DB: conn, Driver: cfg.Driver, SlowQueryThreshold: cfg.SlowQueryThreshold}
	CheckAndLogSlowQuery(logger, db, "DATABASE_CONNECTION", duration)

	return db, nil
}

func dataSourceName(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "libsql":
		if cfg.AuthToken == "" {
			return cfg.DSN, nil
		}
		sep := "?"
		if strings.Contains(cfg.DSN, "?") {
			sep = "&"
		}
		return cfg.DSN + sep + "authToken=" + cfg.AuthToken, nil
	case "sqlite3", "sqlite":
		if !isMemory(cfg.DSN) && !strings.HasPrefix(cfg.DSN, "file:") {
			if dir := filepath.Dir(cfg.DSN); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return "", fmt.Errorf("failed to create database directory: %w", err)
				}
			}
		}
		return cfg.DSN, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// GetConnectionInfo describes the connection for startup banners.
func (db *DB) GetConnectionInfo() string {
	switch db.Driver {
	case "libsql":
		return "Turso/libSQL"
	case "sqlite":
		return "SQLite (pure Go)"
	default:
		return "SQLite"
	}
}
