// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories and domain entities.
package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// SettingsService holds the current settings snapshot. Callers take one
// Snapshot at the start of an operation and use it throughout.
type SettingsService struct {
	repo    repositories.SettingsRepository
	seed    faq.Settings
	current atomic.Pointer[faq.Settings]
	logger  *logging.ChanneledLogger
}

func NewSettingsService(repo repositories.SettingsRepository, seed faq.Settings, logger *logging.ChanneledLogger) *SettingsService {
	s := &SettingsService{repo: repo, seed: seed, logger: logger}
	initial := seed
	s.current.Store(&initial)
	return s
}

// Load reads the stored record, writing the seed when none exists or the
// stored one no longer validates.
func (s *SettingsService) Load(ctx context.Context) error {
	stored, ok, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if ok {
		verr := stored.Validate()
		if verr == nil {
			s.current.Store(stored)
			return nil
		}
		s.logger.System().Warn("Stored settings invalid, reverting to defaults", "error", verr.Error())
	}

	seed := s.seed
	if err := seed.Validate(); err != nil {
		return fmt.Errorf("default settings: %w", err)
	}
	if err := s.repo.Save(ctx, &seed); err != nil {
		return fmt.Errorf("failed to write default settings: %w", err)
	}
	s.current.Store(&seed)
	return nil
}

// Snapshot returns a copy of the current settings.
func (s *SettingsService) Snapshot() faq.Settings {
	return *s.current.Load()
}

// Update validates, persists and then publishes next.
func (s *SettingsService) Update(ctx context.Context, next faq.Settings) (faq.Settings, error) {
	if ot, ok := faq.ParseOutputType(string(next.OutputType)); ok {
		next.OutputType = ot
	}
	if err := next.Validate(); err != nil {
		return faq.Settings{}, err
	}
	if err := s.repo.Save(ctx, &next); err != nil {
		return faq.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	s.current.Store(&next)

	s.logger.System().Info("Settings updated",
		"cacheTtl", next.CacheTTL, "batchSize", next.BatchSize, "outputType", next.OutputType)
	return next, nil
}
