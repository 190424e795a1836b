package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

// Health is the operator view of the queue and render cache.
type Health struct {
	QueueLength int             `json:"queueLength"`
	LastRun     *faq.QueueRun   `json:"lastRun"`
	RecentRuns  []*faq.QueueRun `json:"recentRuns"`
	Cache       stores.Stats    `json:"cache"`
	Settings    SettingsView    `json:"settings"`
	CheckedAt   time.Time       `json:"checkedAt"`
}

// SettingsView is the wire form of faq.Settings.
type SettingsView struct {
	CacheTTLSeconds int64          `json:"cacheTtlSeconds"`
	BatchSize       int            `json:"batchSize"`
	OutputType      faq.OutputType `json:"outputType"`
}

func NewSettingsView(s faq.Settings) SettingsView {
	return SettingsView{
		CacheTTLSeconds: int64(s.CacheTTL / time.Second),
		BatchSize:       s.BatchSize,
		OutputType:      s.OutputType,
	}
}

// QueueService drains the invalidation queue into the render cache and keeps
// the run log.
type QueueService struct {
	queue    repositories.QueueRepository
	runs     repositories.RunLogRepository
	renders  RenderCache
	settings *SettingsService
	config   config.QueueConfig
	logger   *logging.ChanneledLogger
	now      func() time.Time

	// lastDrain is the unix nano time of the latest drain in this process. It
	// covers drains whose run log entry was cleared.
	lastDrain atomic.Int64
}

func NewQueueService(
	queue repositories.QueueRepository,
	runs repositories.RunLogRepository,
	renders RenderCache,
	settings *SettingsService,
	cfg config.QueueConfig,
	logger *logging.ChanneledLogger,
) *QueueService {
	return &QueueService{
		queue:    queue,
		runs:     runs,
		renders:  renders,
		settings: settings,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Drain pops up to limit IDs, drops their render entries and records the run.
// A limit of zero or less uses the current batch size. Runs that find an empty
// queue are still recorded.
func (s *QueueService) Drain(ctx context.Context, limit int, trigger faq.Trigger) (*faq.QueueRun, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.settings.Snapshot().BatchSize
	}

	if _, err := s.Prune(ctx); err != nil {
		s.logger.LogError(logging.ChannelQueue, "prune", err, nil)
	}

	ids, err := s.queue.Pop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to pop invalidation queue: %w", err)
	}
	ranAt := s.now().UTC()
	s.lastDrain.Store(ranAt.UnixNano())
	if len(ids) > 0 {
		s.renders.Invalidate(ids...)
	}

	remaining, err := s.queue.Length(ctx)
	if err != nil {
		s.logger.LogError(logging.ChannelQueue, "queue_length", err, nil)
		remaining = -1
	} else {
		metrics.QueueLength.Set(float64(remaining))
	}

	sampleSize := s.config.SampleSize
	if sampleSize <= 0 || sampleSize > len(ids) {
		sampleSize = len(ids)
	}
	run := &faq.QueueRun{
		ID:        security.NewRunID(ranAt),
		RanAt:     ranAt,
		Processed: len(ids),
		Sample:    append([]int64{}, ids[:sampleSize]...),
		Trigger:   trigger,
		Remaining: remaining,
	}
	if err := s.runs.Append(ctx, run, s.config.LogCap); err != nil {
		s.logger.LogError(logging.ChannelQueue, "append_run", err, map[string]any{"runId": run.ID})
	}

	duration := time.Since(start)
	metrics.QueueDrained.WithLabelValues(string(trigger)).Add(float64(len(ids)))
	metrics.DrainDuration.WithLabelValues(string(trigger)).Observe(duration.Seconds())

	s.logger.Queue().Info("Invalidation queue drained",
		"runId", run.ID, "trigger", trigger, "processed", run.Processed, "remaining", remaining, "duration", duration)
	return run, nil
}

// Prune drops stale entries once the queue has gone undrained for the
// configured retention. Entries requested again within the window survive
// because enqueue refreshes their timestamp. A zero retention keeps everything.
func (s *QueueService) Prune(ctx context.Context) (int, error) {
	if s.config.Retention <= 0 {
		return 0, nil
	}
	now := s.now()
	if last := s.lastDrainedAt(ctx); !last.IsZero() && now.Sub(last) < s.config.Retention {
		return 0, nil
	}
	pruned, err := s.queue.PruneOlderThan(ctx, now.Add(-s.config.Retention))
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		metrics.QueuePruned.Add(float64(pruned))
		s.logger.Queue().Warn("Pruned stale invalidation entries", "count", pruned, "retention", s.config.Retention)
	}
	return pruned, nil
}

// lastDrainedAt is the later of the in-process drain time and the newest
// recorded run. Zero means no drain is known.
func (s *QueueService) lastDrainedAt(ctx context.Context) time.Time {
	var last time.Time
	if nanos := s.lastDrain.Load(); nanos > 0 {
		last = time.Unix(0, nanos)
	}
	run, err := s.LastRun(ctx)
	if err != nil {
		s.logger.LogError(logging.ChannelQueue, "last_run", err, nil)
		return last
	}
	if run != nil && run.RanAt.After(last) {
		last = run.RanAt
	}
	return last
}

func (s *QueueService) Health(ctx context.Context) (*Health, error) {
	length, err := s.queue.Length(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue length: %w", err)
	}
	runs, err := s.runs.List(ctx, s.config.LogCap)
	if err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}
	if runs == nil {
		runs = []*faq.QueueRun{}
	}

	h := &Health{
		QueueLength: length,
		RecentRuns:  runs,
		Cache:       s.renders.Stats(),
		Settings:    NewSettingsView(s.settings.Snapshot()),
		CheckedAt:   s.now().UTC(),
	}
	if len(runs) > 0 {
		h.LastRun = runs[0]
	}
	return h, nil
}

func (s *QueueService) ClearLog(ctx context.Context) error {
	if err := s.runs.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear run log: %w", err)
	}
	s.logger.Queue().Info("Run log cleared")
	return nil
}

// PurgeCache drops every render entry on operator request.
func (s *QueueService) PurgeCache() int {
	n := s.renders.Purge()
	metrics.CachePurges.WithLabelValues("operator").Inc()
	s.logger.Cache().Info("Render cache purged by operator", "entries", n)
	return n
}

// SweepExpired drops expired render entries.
func (s *QueueService) SweepExpired() int {
	n := s.renders.PurgeExpired()
	if n > 0 {
		s.logger.Cache().Debug("Expired render entries swept", "count", n)
	}
	return n
}

func (s *QueueService) QueueLength(ctx context.Context) (int, error) {
	return s.queue.Length(ctx)
}

func (s *QueueService) LastRun(ctx context.Context) (*faq.QueueRun, error) {
	runs, err := s.runs.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

func (s *QueueService) CacheStats() stores.Stats {
	return s.renders.Stats()
}
