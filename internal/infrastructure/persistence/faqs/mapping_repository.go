package faqs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database"
)

// MappingRepository stores one row per (faq, type, value) and matches them
// by exact equality only.
type MappingRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewMappingRepository(db *database.DB, logger *logging.ChanneledLogger) *MappingRepository {
	return &MappingRepository{db: db, logger: logger}
}

// Replace deletes and reinserts every row for faqID in one transaction. On any
// failure the previous rows stay in place.
func (r *MappingRepository) Replace(ctx context.Context, faqID int64, rows []faq.MappingRow) (err error) {
	start := time.Now()
	r.logger.Database().Debug("Executing mapping replace", "faqId", faqID, "rows", len(rows))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin mapping transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			r.logger.Database().Error("Mapping replace rolled back", "error", err.Error(), "faqId", faqID)
		}
	}()

	if err = replaceRows(ctx, tx, faqID, rows); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mappings for faq %d: %w", faqID, err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Mapping replace completed", "faqId", faqID, "rows", len(rows), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, r.db, "BATCH_MAPPING_REPLACE", duration)
	return nil
}

// replaceRows swaps the rows of faqID inside tx. Rows are written under faqID
// whatever their own FAQID says.
func replaceRows(ctx context.Context, tx *sqlx.Tx, faqID int64, rows []faq.MappingRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM faq_mappings WHERE faq_id = ?`, faqID); err != nil {
		return fmt.Errorf("failed to delete mappings for faq %d: %w", faqID, err)
	}
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR IGNORE INTO faq_mappings (faq_id, mapping_type, mapping_value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare mapping insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if !row.Type.Valid() {
			return fmt.Errorf("invalid mapping type %q", row.Type)
		}
		if _, err := stmt.ExecContext(ctx, faqID, string(row.Type), row.Value); err != nil {
			return fmt.Errorf("failed to insert mapping for faq %d: %w", faqID, err)
		}
	}
	return nil
}

func (r *MappingRepository) RowsFor(ctx context.Context, faqID int64) ([]faq.MappingRow, error) {
	query := `SELECT faq_id, mapping_type, mapping_value FROM faq_mappings WHERE faq_id = ? ORDER BY id`

	rows := []faq.MappingRow{}
	if err := r.db.SelectContext(ctx, &rows, query, faqID); err != nil {
		r.logger.Database().Error("Mapping rows query failed", "error", err.Error(), "faqId", faqID)
		return nil, fmt.Errorf("failed to load mappings for faq %d: %w", faqID, err)
	}
	return rows, nil
}

// FindFAQIDs ORs the candidates together, grouping values per type into one
// IN list each, and returns distinct FAQ IDs ascending.
func (r *MappingRepository) FindFAQIDs(ctx context.Context, candidates []faq.Candidate) ([]int64, error) {
	byType := map[faq.MappingType][]string{}
	for _, c := range candidates {
		if !c.Type.Valid() || c.Value == "" {
			continue
		}
		byType[c.Type] = append(byType[c.Type], c.Value)
	}
	if len(byType) == 0 {
		return []int64{}, nil
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var clauses []string
	var args []any
	for _, t := range types {
		values := byType[faq.MappingType(t)]
		clauses = append(clauses, fmt.Sprintf("(mapping_type = ? AND mapping_value IN (%s))", database.Placeholders(len(values))))
		args = append(args, t)
		for _, v := range values {
			args = append(args, v)
		}
	}

	query := `SELECT DISTINCT faq_id FROM faq_mappings WHERE ` + strings.Join(clauses, " OR ") + ` ORDER BY faq_id`

	start := time.Now()
	r.logger.Database().Debug("Executing mapping lookup", "candidates", len(candidates))

	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.Database().Error("Mapping lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to find faq ids: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, r.db, query, time.Since(start))
	return ids, nil
}
