// Package queue persists the invalidation queue and its run log.
package queue

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

// QueueRepository is a FIFO set of content IDs backed by a table with a
// UNIQUE content_id column. Insertion order is the AUTOINCREMENT seq.
type QueueRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
	now    func() time.Time
}

func NewQueueRepository(db *database.DB, logger *logging.ChanneledLogger) *QueueRepository {
	return &QueueRepository{db: db, logger: logger, now: time.Now}
}

// Enqueue inserts ids in order. An id already queued keeps its position but
// has its enqueued_at refreshed, so retention counts from the latest request.
func (r *QueueRepository) Enqueue(ctx context.Context, ids []int64) (added int, err error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	r.logger.Database().Debug("Executing queue enqueue", "count", len(ids))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin enqueue transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("Queue enqueue rolled back", "error", err.Error())
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `INSERT OR IGNORE INTO invalidation_queue (content_id, enqueued_at) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare enqueue: %w", err)
	}
	defer stmt.Close()

	touch, err := tx.PreparexContext(ctx, `UPDATE invalidation_queue SET enqueued_at = ? WHERE content_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare enqueue refresh: %w", err)
	}
	defer touch.Close()

	at := r.now().UTC().Unix()
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		res, execErr := stmt.ExecContext(ctx, id, at)
		if execErr != nil {
			err = execErr
			return 0, fmt.Errorf("failed to enqueue content %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added += int(n)
			continue
		}
		if _, execErr := touch.ExecContext(ctx, at, id); execErr != nil {
			err = execErr
			return 0, fmt.Errorf("failed to refresh queued content %d: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enqueue: %w", err)
	}

	r.logger.Database().Info("Queue enqueue completed", "requested", len(ids), "added", added, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, r.db, "BATCH_QUEUE_ENQUEUE", time.Since(start))
	return added, nil
}

// Pop atomically removes up to limit of the oldest entries and returns them
// oldest first.
func (r *QueueRepository) Pop(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}

	query := `DELETE FROM invalidation_queue
		WHERE seq IN (SELECT seq FROM invalidation_queue ORDER BY seq LIMIT ?)
		RETURNING seq, content_id`

	start := time.Now()
	r.logger.Database().Debug("Executing queue pop", "limit", limit)

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		r.logger.Database().Error("Queue pop failed", "error", err.Error())
		return nil, fmt.Errorf("failed to pop queue: %w", err)
	}
	defer rows.Close()

	type entry struct{ seq, id int64 }
	var popped []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.seq, &e.id); err != nil {
			return nil, fmt.Errorf("failed to scan popped entry: %w", err)
		}
		popped = append(popped, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read popped entries: %w", err)
	}

	sort.Slice(popped, func(i, j int) bool { return popped[i].seq < popped[j].seq })
	ids := make([]int64, 0, len(popped))
	for _, e := range popped {
		ids = append(ids, e.id)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, "BATCH_QUEUE_POP", time.Since(start))
	return ids, nil
}

func (r *QueueRepository) Length(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM invalidation_queue`); err != nil {
		r.logger.Database().Error("Queue length query failed", "error", err.Error())
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

// PruneOlderThan drops entries whose latest enqueue is before cutoff.
func (r *QueueRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invalidation_queue WHERE enqueued_at < ?`, cutoff.UTC().Unix())
	if err != nil {
		r.logger.Database().Error("Queue prune failed", "error", err.Error())
		return 0, fmt.Errorf("failed to prune queue: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Database().Info("Pruned stale queue entries", "count", n, "cutoff", cutoff)
	}
	return int(n), nil
}
