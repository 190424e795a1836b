// Package content provides the CMS content mirror repository.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

type ContentRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewContentRepository(db *database.DB, logger *logging.ChanneledLogger) *ContentRepository {
	return &ContentRepository{db: db, logger: logger}
}

func (r *ContentRepository) FindByID(ctx context.Context, id int64) (*content.Item, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing content query", "id", id)

	var item content.Item
	err := r.db.GetContext(ctx, &item, `SELECT id, post_type, url, title, status FROM content_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faq.ErrContentNotFound
	}
	if err != nil {
		r.logger.Database().Error("Content query failed", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to query content %d: %w", id, err)
	}

	item.Terms = []content.Term{}
	err = r.db.SelectContext(ctx, &item.Terms,
		`SELECT t.id, t.taxonomy, t.name FROM content_terms ct JOIN terms t ON t.id = ct.term_id
		 WHERE ct.content_id = ? ORDER BY t.id`, id)
	if err != nil {
		r.logger.Database().Error("Content terms query failed", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to query terms for content %d: %w", id, err)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, "CONTENT_FIND_BY_ID", time.Since(start))
	return &item, nil
}

func (r *ContentRepository) FindIDByURL(ctx context.Context, canonical string) (int64, bool, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT id FROM content_items WHERE url = ? ORDER BY id LIMIT 1`, canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Database().Error("Content url lookup failed", "error", err.Error(), "url", canonical)
		return 0, false, fmt.Errorf("failed to resolve url: %w", err)
	}
	return id, true, nil
}

func (r *ContentRepository) IDsByPostType(ctx context.Context, postType string, after int64, limit int) ([]int64, error) {
	query := `SELECT id FROM content_items WHERE post_type = ? AND id > ? ORDER BY id LIMIT ?`
	return r.selectIDs(ctx, query, postType, after, limit)
}

func (r *ContentRepository) IDsByTerm(ctx context.Context, termID int64, after int64, limit int) ([]int64, error) {
	query := `SELECT content_id FROM content_terms WHERE term_id = ? AND content_id > ? ORDER BY content_id LIMIT ?`
	return r.selectIDs(ctx, query, termID, after, limit)
}

func (r *ContentRepository) selectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing content id page query", "args", args)

	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.Database().Error("Content id page query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to page content ids: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	return ids, nil
}

// Upsert writes the item and replaces its term links. Terms are upserted too
// so autocomplete sees their current names.
func (r *ContentRepository) Upsert(ctx context.Context, item *content.Item) (err error) {
	start := time.Now()
	r.logger.Database().Debug("Executing content upsert", "id", item.ID)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin content transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("Content upsert rolled back", "error", err.Error(), "id", item.ID)
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO content_items (id, post_type, url, title, status) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET post_type = excluded.post_type, url = excluded.url,
		 title = excluded.title, status = excluded.status`,
		item.ID, item.PostType, item.URL, item.Title, item.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert content %d: %w", item.ID, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM content_terms WHERE content_id = ?`, item.ID); err != nil {
		return fmt.Errorf("failed to clear terms for content %d: %w", item.ID, err)
	}

	for _, term := range item.Terms {
		if term.ID <= 0 {
			continue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO terms (id, taxonomy, name) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET taxonomy = excluded.taxonomy, name = excluded.name`,
			term.ID, term.Taxonomy, term.Name)
		if err != nil {
			return fmt.Errorf("failed to upsert term %d: %w", term.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO content_terms (content_id, term_id) VALUES (?, ?)`, item.ID, term.ID)
		if err != nil {
			return fmt.Errorf("failed to link term %d: %w", term.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit content %d: %w", item.ID, err)
	}

	r.logger.Database().Info("Content upsert completed", "id", item.ID, "terms", len(item.Terms), "duration", time.Since(start))
	return nil
}

func (r *ContentRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin content delete: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM content_terms WHERE content_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete terms for content %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM content_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = faq.ErrContentNotFound
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit content delete %d: %w", id, err)
	}

	r.logger.Database().Info("Content delete completed", "id", id)
	return nil
}

func likePattern(q string) string {
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(q))
	return "%" + q + "%"
}

func (r *ContentRepository) SearchContent(ctx context.Context, query string, limit int) ([]content.SearchResult, error) {
	results := []content.SearchResult{}
	err := r.db.SelectContext(ctx, &results,
		`SELECT id, title AS label, post_type AS kind FROM content_items
		 WHERE title LIKE ? ESCAPE '\' OR CAST(id AS TEXT) = ?
		 ORDER BY title, id LIMIT ?`,
		likePattern(query), strings.TrimSpace(query), limit)
	if err != nil {
		r.logger.Database().Error("Content search failed", "error", err.Error())
		return nil, fmt.Errorf("failed to search content: %w", err)
	}
	return results, nil
}

func (r *ContentRepository) SearchTerms(ctx context.Context, query string, limit int) ([]content.SearchResult, error) {
	results := []content.SearchResult{}
	err := r.db.SelectContext(ctx, &results,
		`SELECT id, name AS label, taxonomy AS kind FROM terms
		 WHERE name LIKE ? ESCAPE '\' OR CAST(id AS TEXT) = ?
		 ORDER BY name, id LIMIT ?`,
		likePattern(query), strings.TrimSpace(query), limit)
	if err != nil {
		r.logger.Database().Error("Term search failed", "error", err.Error())
		return nil, fmt.Errorf("failed to search terms: %w", err)
	}
	return results, nil
}

func (r *ContentRepository) PostTypes(ctx context.Context) ([]string, error) {
	types := []string{}
	if err := r.db.SelectContext(ctx, &types, `SELECT DISTINCT post_type FROM content_items ORDER BY post_type`); err != nil {
		r.logger.Database().Error("Post type query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to list post types: %w", err)
	}
	return types, nil
}
