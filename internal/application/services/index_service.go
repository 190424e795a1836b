package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/faq-jsonld-go/internal/domain/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// SaveResult reports what a FAQ write changed in the index.
type SaveResult struct {
	FAQ        *faq.Item        `json:"faq,omitempty"`
	Rows       []faq.MappingRow `json:"rows"`
	Resolution *Resolution      `json:"resolution,omitempty"`
}

// ReindexResult summarizes an operator reindex.
type ReindexResult struct {
	FAQs     int           `json:"faqs"`
	Changed  int           `json:"changed"`
	Enqueued int           `json:"enqueued"`
	Purged   bool          `json:"purged"`
	Duration time.Duration `json:"duration"`
}

// IndexService owns the FAQ save pipeline: compile the rule, store the item
// together with its mapping rows, then queue every page the old or new rows
// touch.
type IndexService struct {
	faqs     repositories.FAQRepository
	mappings repositories.MappingRepository
	compiler *domainservices.RuleCompiler
	resolver *InvalidationResolver
	settings *SettingsService
	logger   *logging.ChanneledLogger
}

func NewIndexService(
	faqs repositories.FAQRepository,
	mappings repositories.MappingRepository,
	compiler *domainservices.RuleCompiler,
	resolver *InvalidationResolver,
	settings *SettingsService,
	logger *logging.ChanneledLogger,
) *IndexService {
	return &IndexService{
		faqs:     faqs,
		mappings: mappings,
		compiler: compiler,
		resolver: resolver,
		settings: settings,
		logger:   logger,
	}
}

func validateFAQ(item *faq.Item) error {
	if item == nil {
		return fmt.Errorf("%w: faq cannot be nil", faq.ErrInvalidFAQ)
	}
	item.Question = strings.TrimSpace(item.Question)
	if item.Question == "" {
		return fmt.Errorf("%w: question cannot be empty", faq.ErrInvalidFAQ)
	}
	if item.Status != faq.StatusPublish {
		item.Status = faq.StatusDraft
	}
	if item.Rule == nil {
		item.Rule = faq.URLRule{}
	}
	return nil
}

// Create stores a new FAQ and indexes it.
func (s *IndexService) Create(ctx context.Context, item *faq.Item) (*SaveResult, error) {
	if err := validateFAQ(item); err != nil {
		return nil, err
	}
	start := time.Now()
	rows := s.compiler.Compile(ctx, item.ID, item.Rule)
	if err := s.faqs.Store(ctx, item, rows); err != nil {
		return nil, fmt.Errorf("failed to create faq: %w", err)
	}
	return s.indexed(ctx, item, rows, nil, start), nil
}

// Update rewrites an existing FAQ and re-indexes it.
func (s *IndexService) Update(ctx context.Context, item *faq.Item) (*SaveResult, error) {
	if err := validateFAQ(item); err != nil {
		return nil, err
	}
	existing, err := s.faqs.FindByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Created = existing.Created
	old, err := s.mappings.RowsFor(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current mappings: %w", err)
	}
	start := time.Now()
	rows := s.compiler.Compile(ctx, item.ID, item.Rule)
	if err := s.faqs.Update(ctx, item, rows); err != nil {
		return nil, fmt.Errorf("failed to update faq %d: %w", item.ID, err)
	}
	return s.indexed(ctx, item, rows, old, start), nil
}

// Delete removes a FAQ and its rows, then queues every page it touched.
func (s *IndexService) Delete(ctx context.Context, id int64) (*SaveResult, error) {
	old, err := s.mappings.RowsFor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load current mappings: %w", err)
	}
	if err := s.faqs.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Index().Info("FAQ deleted", "faqId", id, "oldRows", len(old))
	return &SaveResult{Rows: []faq.MappingRow{}, Resolution: s.invalidate(ctx, id, old)}, nil
}

func (s *IndexService) Get(ctx context.Context, id int64) (*faq.Item, []faq.MappingRow, error) {
	item, err := s.faqs.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.mappings.RowsFor(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mappings for faq %d: %w", id, err)
	}
	return item, rows, nil
}

func (s *IndexService) List(ctx context.Context, offset, limit int) ([]*faq.Item, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.faqs.List(ctx, offset, limit)
}

func (s *IndexService) indexed(ctx context.Context, item *faq.Item, rows, old []faq.MappingRow, start time.Time) *SaveResult {
	if rows == nil {
		rows = []faq.MappingRow{}
	}

	s.logger.Index().Info("FAQ indexed",
		"faqId", item.ID, "ruleType", item.Rule.Type(), "rows", len(rows), "oldRows", len(old), "duration", time.Since(start))

	affected := append(append([]faq.MappingRow{}, old...), rows...)
	return &SaveResult{FAQ: item, Rows: rows, Resolution: s.invalidate(ctx, item.ID, affected)}
}

// invalidate never fails the caller; pages it could not queue stay stale
// until their cache entry expires.
func (s *IndexService) invalidate(ctx context.Context, faqID int64, rows []faq.MappingRow) *Resolution {
	snap := s.settings.Snapshot()
	res, err := s.resolver.Resolve(ctx, rows, snap.BatchSize)
	if err != nil {
		s.logger.LogError(logging.ChannelQueue, "resolve_invalidation", err, map[string]any{"faqId": faqID})
	}
	return res
}

// Reindex recompiles every FAQ, so url rows are re-resolved against the
// current content mirror. Only FAQs whose rows changed are invalidated.
func (s *IndexService) Reindex(ctx context.Context) (*ReindexResult, error) {
	start := time.Now()
	snap := s.settings.Snapshot()
	result := &ReindexResult{}

	var after int64
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		ids, err := s.faqs.ListIDs(ctx, after, snap.BatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to page faqs: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		items, err := s.faqs.FindByIDs(ctx, ids)
		if err != nil {
			return result, fmt.Errorf("failed to load faqs: %w", err)
		}

		for _, item := range items {
			result.FAQs++
			changed, res, err := s.reindexIfChanged(ctx, item)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return result, err
				}
				s.logger.LogError(logging.ChannelIndex, "reindex_faq", err, map[string]any{"faqId": item.ID})
				continue
			}
			if changed {
				result.Changed++
			}
			if res != nil {
				result.Enqueued += res.Enqueued
				result.Purged = result.Purged || res.GlobalPurge
			}
		}
		after = ids[len(ids)-1]
	}

	result.Duration = time.Since(start)
	s.logger.Index().Info("Reindex completed",
		"faqs", result.FAQs, "changed", result.Changed, "enqueued", result.Enqueued, "duration", result.Duration)
	return result, nil
}

func (s *IndexService) reindexIfChanged(ctx context.Context, item *faq.Item) (bool, *Resolution, error) {
	old, err := s.mappings.RowsFor(ctx, item.ID)
	if err != nil {
		return false, nil, err
	}
	rows := s.compiler.Compile(ctx, item.ID, item.Rule)
	if sameRows(old, rows) {
		return false, nil, nil
	}
	if err := s.mappings.Replace(ctx, item.ID, rows); err != nil {
		return false, nil, err
	}
	affected := append(append([]faq.MappingRow{}, old...), rows...)
	return true, s.invalidate(ctx, item.ID, affected), nil
}

func sameRows(a, b []faq.MappingRow) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[faq.Candidate]int, len(a))
	for _, r := range a {
		set[r.Candidate()]++
	}
	for _, r := range b {
		if set[r.Candidate()] == 0 {
			return false
		}
		set[r.Candidate()]--
	}
	return true
}
