// Package settings persists the single process-wide settings record.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

const settingsKey = "settings"

type storedSettings struct {
	CacheTTLSeconds int64  `json:"cacheTtlSeconds"`
	BatchSize       int    `json:"batchSize"`
	OutputType      string `json:"outputType"`
}

type SettingsRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewSettingsRepository(db *database.DB, logger *logging.ChanneledLogger) *SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

func (r *SettingsRepository) Load(ctx context.Context) (*faq.Settings, bool, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, `SELECT value FROM settings WHERE key = ?`, settingsKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Database().Error("Settings query failed", "error", err.Error())
		return nil, false, fmt.Errorf("failed to load settings: %w", err)
	}

	var stored storedSettings
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false, fmt.Errorf("failed to decode settings: %w", err)
	}
	outputType, ok := faq.ParseOutputType(stored.OutputType)
	if !ok {
		outputType = faq.OutputFAQSection
	}
	return &faq.Settings{
		CacheTTL:   time.Duration(stored.CacheTTLSeconds) * time.Second,
		BatchSize:  stored.BatchSize,
		OutputType: outputType,
	}, true, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *faq.Settings) error {
	payload, err := json.Marshal(storedSettings{
		CacheTTLSeconds: int64(s.CacheTTL / time.Second),
		BatchSize:       s.BatchSize,
		OutputType:      string(s.OutputType),
	})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, changed) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, changed = excluded.changed`,
		settingsKey, string(payload), time.Now().UTC().Unix())
	if err != nil {
		r.logger.Database().Error("Settings save failed", "error", err.Error())
		return fmt.Errorf("failed to save settings: %w", err)
	}
	r.logger.Database().Info("Settings saved", "batchSize", s.BatchSize, "cacheTtl", s.CacheTTL, "outputType", s.OutputType)
	return nil
}
