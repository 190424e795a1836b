package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/metrics"
)

// Resolution summarizes what one call to Resolve affected.
type Resolution struct {
	Affected    int  `json:"affected"`
	Enqueued    int  `json:"enqueued"`
	GlobalPurge bool `json:"globalPurge"`
	Purged      int  `json:"purged"`
}

// InvalidationResolver maps changed mapping rows to the content IDs whose
// render may be stale and queues them. Type and term fan-out is paged so no
// single query returns more than one batch.
type InvalidationResolver struct {
	content repositories.ContentRepository
	queue   repositories.QueueRepository
	renders RenderCache
	logger  *logging.ChanneledLogger
}

func NewInvalidationResolver(
	content repositories.ContentRepository,
	queue repositories.QueueRepository,
	renders RenderCache,
	logger *logging.ChanneledLogger,
) *InvalidationResolver {
	return &InvalidationResolver{content: content, queue: queue, renders: renders, logger: logger}
}

// Resolve walks rows with the given batch size. A global row purges the whole
// render cache and short-circuits enumeration. Lookup and enqueue failures are
// collected and returned together after the walk completes.
func (r *InvalidationResolver) Resolve(ctx context.Context, rows []faq.MappingRow, batchSize int) (*Resolution, error) {
	start := time.Now()
	res := &Resolution{}
	if batchSize < faq.MinBatchSize {
		batchSize = faq.MinBatchSize
	}

	rows = uniqueRows(rows)
	for _, row := range rows {
		if row.Type == faq.MappingGlobal {
			res.GlobalPurge = true
			res.Purged = r.renders.Purge()
			metrics.CachePurges.WithLabelValues("global").Inc()
			r.logger.Queue().Info("Global mapping changed, render cache purged", "purged", res.Purged)
			return res, nil
		}
	}

	seen := roaring64.New()
	var pending []int64
	var errs []error

	flush := func() {
		if len(pending) == 0 {
			return
		}
		added, err := r.queue.Enqueue(ctx, pending)
		if err != nil {
			metrics.QueueEnqueueFailures.Inc()
			errs = append(errs, fmt.Errorf("enqueue %d ids: %w", len(pending), err))
		} else {
			res.Enqueued += added
			metrics.QueueEnqueued.Add(float64(added))
		}
		pending = pending[:0]
	}
	add := func(id int64) {
		if id <= 0 || seen.Contains(uint64(id)) {
			return
		}
		seen.Add(uint64(id))
		pending = append(pending, id)
		if len(pending) >= batchSize {
			flush()
		}
	}

	for _, row := range rows {
		switch row.Type {
		case faq.MappingPost:
			if id, err := strconv.ParseInt(row.Value, 10, 64); err == nil {
				add(id)
			}
		case faq.MappingURL:
			id, ok, err := r.content.FindIDByURL(ctx, row.Value)
			if err != nil {
				errs = append(errs, fmt.Errorf("resolve url %s: %w", row.Value, err))
				continue
			}
			if ok {
				add(id)
			}
		case faq.MappingPostType:
			err := r.page(ctx, batchSize, add, func(after int64) ([]int64, error) {
				return r.content.IDsByPostType(ctx, row.Value, after, batchSize)
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("page post type %s: %w", row.Value, err))
			}
		case faq.MappingTerm:
			termID, err := strconv.ParseInt(row.Value, 10, 64)
			if err != nil {
				continue
			}
			err = r.page(ctx, batchSize, add, func(after int64) ([]int64, error) {
				return r.content.IDsByTerm(ctx, termID, after, batchSize)
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("page term %d: %w", termID, err))
			}
		case faq.MappingGlobal:
		}
	}
	flush()

	res.Affected = int(seen.GetCardinality())
	r.logger.Queue().Info("Invalidation resolved",
		"rows", len(rows), "affected", res.Affected, "enqueued", res.Enqueued, "duration", time.Since(start))
	return res, errors.Join(errs...)
}

// page drives a keyset cursor until a short page comes back.
func (r *InvalidationResolver) page(ctx context.Context, batchSize int, add func(int64), fetch func(after int64) ([]int64, error)) error {
	var after int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := fetch(after)
		if err != nil {
			return err
		}
		for _, id := range ids {
			add(id)
		}
		if len(ids) < batchSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

func uniqueRows(rows []faq.MappingRow) []faq.MappingRow {
	seen := make(map[faq.Candidate]bool, len(rows))
	out := make([]faq.MappingRow, 0, len(rows))
	for _, row := range rows {
		key := row.Candidate()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}
