// Package database provides schema creation for the FAQ index database.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TableCreator handles the creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
// Every statement is idempotent.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedSettings writes the initial settings record unless one already exists.
func (tc *TableCreator) SeedSettings(db *sql.DB, cacheTTL time.Duration, batchSize int, outputType string) error {
	payload, err := json.Marshal(map[string]any{
		"cacheTtlSeconds": int64(cacheTTL / time.Second),
		"batchSize":       batchSize,
		"outputType":      outputType,
	})
	if err != nil {
		return fmt.Errorf("failed to encode default settings: %w", err)
	}
	_, err = db.Exec(`INSERT OR IGNORE INTO settings (key, value, changed) VALUES ('settings', ?, ?)`,
		string(payload), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS faq_items (id INTEGER PRIMARY KEY AUTOINCREMENT, question TEXT NOT NULL, answer TEXT NOT NULL, status TEXT NOT NULL DEFAULT 'draft', assoc_type TEXT NOT NULL DEFAULT 'urls', assoc_payload TEXT NOT NULL DEFAULT '{}', created INTEGER NOT NULL, changed INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS faq_mappings (id INTEGER PRIMARY KEY AUTOINCREMENT, faq_id INTEGER NOT NULL, mapping_type TEXT NOT NULL, mapping_value TEXT NOT NULL, UNIQUE(faq_id, mapping_type, mapping_value))`,
	`CREATE TABLE IF NOT EXISTS invalidation_queue (seq INTEGER PRIMARY KEY AUTOINCREMENT, content_id INTEGER NOT NULL UNIQUE, enqueued_at INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS invalidation_runs (id TEXT PRIMARY KEY, ran_at INTEGER NOT NULL, processed INTEGER NOT NULL, remaining INTEGER NOT NULL DEFAULT 0, sample TEXT NOT NULL DEFAULT '[]', trigger_name TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL, changed INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS content_items (id INTEGER PRIMARY KEY, post_type TEXT NOT NULL, url TEXT NOT NULL DEFAULT '', title TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'publish')`,
	`CREATE TABLE IF NOT EXISTS terms (id INTEGER PRIMARY KEY, taxonomy TEXT NOT NULL, name TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS content_terms (content_id INTEGER NOT NULL, term_id INTEGER NOT NULL, PRIMARY KEY (content_id, term_id))`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_faq_mappings_faq_id ON faq_mappings(faq_id)`,
	`CREATE INDEX IF NOT EXISTS idx_faq_mappings_type ON faq_mappings(mapping_type)`,
	`CREATE INDEX IF NOT EXISTS idx_faq_mappings_type_value ON faq_mappings(mapping_type, mapping_value)`,
	`CREATE INDEX IF NOT EXISTS idx_invalidation_queue_enqueued ON invalidation_queue(enqueued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_invalidation_runs_ran_at ON invalidation_runs(ran_at)`,
	`CREATE INDEX IF NOT EXISTS idx_content_items_post_type ON content_items(post_type, id)`,
	`CREATE INDEX IF NOT EXISTS idx_content_items_url ON content_items(url)`,
	`CREATE INDEX IF NOT EXISTS idx_content_terms_term ON content_terms(term_id, content_id)`,
	`CREATE INDEX IF NOT EXISTS idx_faq_items_status ON faq_items(status)`,
}
