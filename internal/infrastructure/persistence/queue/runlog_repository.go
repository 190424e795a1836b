package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

type runRow struct {
	ID        string `db:"id"`
	RanAt     int64  `db:"ran_at"`
	Processed int    `db:"processed"`
	Remaining int    `db:"remaining"`
	Sample    string `db:"sample"`
	Trigger   string `db:"trigger_name"`
}

// RunLogRepository keeps a bounded, newest-first history of queue drains.
type RunLogRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewRunLogRepository(db *database.DB, logger *logging.ChanneledLogger) *RunLogRepository {
	return &RunLogRepository{db: db, logger: logger}
}

func (r *RunLogRepository) Append(ctx context.Context, run *faq.QueueRun, keep int) (err error) {
	sample, err := json.Marshal(run.Sample)
	if err != nil {
		return fmt.Errorf("failed to encode run sample: %w", err)
	}
	if run.Sample == nil {
		sample = []byte("[]")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin run log transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("Run log append rolled back", "error", err.Error())
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invalidation_runs (id, ran_at, processed, remaining, sample, trigger_name) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.RanAt.UTC().UnixMilli(), run.Processed, run.Remaining, string(sample), string(run.Trigger))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	if keep > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM invalidation_runs WHERE rowid NOT IN (SELECT rowid FROM invalidation_runs ORDER BY ran_at DESC, rowid DESC LIMIT ?)`,
			keep)
		if err != nil {
			return fmt.Errorf("failed to trim run log: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunLogRepository) List(ctx context.Context, limit int) ([]*faq.QueueRun, error) {
	query := `SELECT id, ran_at, processed, remaining, sample, trigger_name FROM invalidation_runs
		ORDER BY ran_at DESC, rowid DESC LIMIT ?`

	start := time.Now()
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		r.logger.Database().Error("Run log query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))

	runs := make([]*faq.QueueRun, 0, len(rows))
	for _, row := range rows {
		run := &faq.QueueRun{
			ID:        row.ID,
			RanAt:     time.UnixMilli(row.RanAt).UTC(),
			Processed: row.Processed,
			Remaining: row.Remaining,
			Trigger:   faq.Trigger(row.Trigger),
			Sample:    []int64{},
		}
		if err := json.Unmarshal([]byte(row.Sample), &run.Sample); err != nil {
			r.logger.Database().Warn("Discarding unreadable run sample", "id", row.ID, "error", err.Error())
			run.Sample = []int64{}
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (r *RunLogRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM invalidation_runs`); err != nil {
		r.logger.Database().Error("Run log clear failed", "error", err.Error())
		return fmt.Errorf("failed to clear run log: %w", err)
	}
	r.logger.Database().Info("Run log cleared")
	return nil
}
