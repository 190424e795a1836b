// Package faqs provides the FAQ item and mapping row repositories.
package faqs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

type faqRow struct {
	ID           int64  `db:"id"`
	Question     string `db:"question"`
	Answer       string `db:"answer"`
	Status       string `db:"status"`
	AssocType    string `db:"assoc_type"`
	AssocPayload string `db:"assoc_payload"`
	Created      int64  `db:"created"`
	Changed      int64  `db:"changed"`
}

func (r faqRow) toItem() *faq.Item {
	return &faq.Item{
		ID:       r.ID,
		Question: r.Question,
		Answer:   r.Answer,
		Status:   faq.ParseStatus(r.Status),
		Rule:     faq.DecodePayload([]byte(r.AssocPayload)),
		Created:  time.Unix(r.Created, 0).UTC(),
		Changed:  time.Unix(r.Changed, 0).UTC(),
	}
}

const faqColumns = `id, question, answer, status, assoc_type, assoc_payload, created, changed`

type FAQRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewFAQRepository(db *database.DB, logger *logging.ChanneledLogger) *FAQRepository {
	return &FAQRepository{db: db, logger: logger}
}

func (r *FAQRepository) FindByID(ctx context.Context, id int64) (*faq.Item, error) {
	query := `SELECT ` + faqColumns + ` FROM faq_items WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing faq query", "id", id)

	var row faqRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, faq.ErrFAQNotFound
		}
		r.logger.Database().Error("FAQ query failed", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to query faq %d: %w", id, err)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	return row.toItem(), nil
}

// FindByIDs returns the matching items ordered by ID. Unknown IDs are skipped.
func (r *FAQRepository) FindByIDs(ctx context.Context, ids []int64) ([]*faq.Item, error) {
	if len(ids) == 0 {
		return []*faq.Item{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+faqColumns+` FROM faq_items WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build faq bulk query: %w", err)
	}
	query = r.db.Rebind(query)

	start := time.Now()
	r.logger.Database().Debug("Executing faq bulk query", "count", len(ids))

	var rows []faqRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Database().Error("FAQ bulk query failed", "error", err.Error(), "count", len(ids))
		return nil, fmt.Errorf("failed to query faqs: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	items := make([]*faq.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items, nil
}

func (r *FAQRepository) ListIDs(ctx context.Context, after int64, limit int) ([]int64, error) {
	query := `SELECT id FROM faq_items WHERE id > ? ORDER BY id LIMIT ?`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, after, limit); err != nil {
		r.logger.Database().Error("FAQ id page query failed", "error", err.Error(), "after", after)
		return nil, fmt.Errorf("failed to list faq ids: %w", err)
	}
	return ids, nil
}

func (r *FAQRepository) List(ctx context.Context, offset, limit int) ([]*faq.Item, error) {
	query := `SELECT ` + faqColumns + ` FROM faq_items ORDER BY id LIMIT ? OFFSET ?`

	start := time.Now()
	var rows []faqRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		r.logger.Database().Error("FAQ list query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))

	items := make([]*faq.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items, nil
}

// Store inserts item with its mapping rows in one transaction and sets the
// item's ID and timestamps. Nothing is written if either part fails.
func (r *FAQRepository) Store(ctx context.Context, item *faq.Item, rows []faq.MappingRow) (err error) {
	payload, err := faq.EncodePayload(item.Rule)
	if err != nil {
		return fmt.Errorf("failed to encode association payload: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	ruleType := ruleTypeOf(item.Rule)

	query := `INSERT INTO faq_items (question, answer, status, assoc_type, assoc_payload, created, changed)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`

	start := time.Now()
	r.logger.Database().Debug("Executing faq insert", "assocType", ruleType, "rows", len(rows))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin faq transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("FAQ insert rolled back", "error", err.Error())
		}
	}()

	var id int64
	err = tx.QueryRowxContext(ctx, query,
		item.Question, item.Answer, string(item.Status), string(ruleType), string(payload), now.Unix(), now.Unix(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert faq: %w", err)
	}
	if err = replaceRows(ctx, tx, id, rows); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit faq insert: %w", err)
	}

	item.ID = id
	item.Created = now
	item.Changed = now
	for i := range rows {
		rows[i].FAQID = id
	}
	r.logger.Database().Info("FAQ insert completed", "id", id, "rows", len(rows), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	return nil
}

// Update rewrites item and swaps its mapping rows in one transaction.
func (r *FAQRepository) Update(ctx context.Context, item *faq.Item, rows []faq.MappingRow) (err error) {
	payload, err := faq.EncodePayload(item.Rule)
	if err != nil {
		return fmt.Errorf("failed to encode association payload: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Second)

	query := `UPDATE faq_items SET question = ?, answer = ?, status = ?, assoc_type = ?, assoc_payload = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing faq update", "id", item.ID, "rows", len(rows))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin faq transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("FAQ update rolled back", "error", err.Error(), "id", item.ID)
		}
	}()

	res, err := tx.ExecContext(ctx, query,
		item.Question, item.Answer, string(item.Status), string(ruleTypeOf(item.Rule)), string(payload), now.Unix(), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update faq %d: %w", item.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = faq.ErrFAQNotFound
		return err
	}
	if err = replaceRows(ctx, tx, item.ID, rows); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit faq %d update: %w", item.ID, err)
	}

	item.Changed = now
	r.logger.Database().Info("FAQ update completed", "id", item.ID, "rows", len(rows), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	return nil
}

// Delete removes the item and its mapping rows in one transaction.
func (r *FAQRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	r.logger.Database().Debug("Executing faq delete", "id", id)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin faq transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			if !errors.Is(err, faq.ErrFAQNotFound) {
				r.logger.Database().Error("FAQ delete rolled back", "error", err.Error(), "id", id)
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM faq_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete faq %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = faq.ErrFAQNotFound
		return err
	}
	if err = replaceRows(ctx, tx, id, nil); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit faq %d delete: %w", id, err)
	}

	r.logger.Database().Info("FAQ delete completed", "id", id, "duration", time.Since(start))
	return nil
}

func ruleTypeOf(rule faq.Rule) faq.RuleType {
	if rule == nil {
		return faq.RuleURLs
	}
	return rule.Type()
}
