// Package repositories defines the persistence contracts the FAQ services
// depend on. Implementations live under infrastructure/persistence.
package repositories

import (
	"context"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

type FAQRepository interface {
	FindByID(ctx context.Context, id int64) (*faq.Item, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*faq.Item, error)
	// ListIDs pages through every FAQ ID greater than after, ascending.
	ListIDs(ctx context.Context, after int64, limit int) ([]int64, error)
	List(ctx context.Context, offset, limit int) ([]*faq.Item, error)
	// Store inserts item and its mapping rows atomically, setting item.ID.
	Store(ctx context.Context, item *faq.Item, rows []faq.MappingRow) error
	// Update rewrites item and replaces its mapping rows atomically.
	Update(ctx context.Context, item *faq.Item, rows []faq.MappingRow) error
	// Delete removes item and its mapping rows atomically.
	Delete(ctx context.Context, id int64) error
}

// MappingRepository is the normalized FAQ index.
type MappingRepository interface {
	// Replace swaps every row of faqID for rows in one transaction.
	Replace(ctx context.Context, faqID int64, rows []faq.MappingRow) error
	RowsFor(ctx context.Context, faqID int64) ([]faq.MappingRow, error)
	// FindFAQIDs returns the distinct FAQ IDs with a row exactly matching any
	// candidate, ascending.
	FindFAQIDs(ctx context.Context, candidates []faq.Candidate) ([]int64, error)
}

// QueueRepository is the durable, deduplicated invalidation queue.
type QueueRepository interface {
	// Enqueue appends ids not already queued and reports how many were added.
	Enqueue(ctx context.Context, ids []int64) (int, error)
	// Pop removes and returns up to limit ids, oldest first.
	Pop(ctx context.Context, limit int) ([]int64, error)
	Length(ctx context.Context) (int, error)
	// PruneOlderThan drops entries enqueued before cutoff.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type RunLogRepository interface {
	// Append records run and trims the log to keep entries.
	Append(ctx context.Context, run *faq.QueueRun, keep int) error
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]*faq.QueueRun, error)
	Clear(ctx context.Context) error
}

type SettingsRepository interface {
	// Load returns the stored settings, or false when nothing is stored yet.
	Load(ctx context.Context) (*faq.Settings, bool, error)
	Save(ctx context.Context, s *faq.Settings) error
}

// ContentRepository reads and writes the CMS content mirror.
type ContentRepository interface {
	FindByID(ctx context.Context, id int64) (*content.Item, error)
	// FindIDByURL resolves a canonical URL; ok is false when nothing matches.
	FindIDByURL(ctx context.Context, canonical string) (id int64, ok bool, err error)
	// IDsByPostType and IDsByTerm page by ascending ID after the given cursor.
	IDsByPostType(ctx context.Context, postType string, after int64, limit int) ([]int64, error)
	IDsByTerm(ctx context.Context, termID int64, after int64, limit int) ([]int64, error)
	Upsert(ctx context.Context, item *content.Item) error
	Delete(ctx context.Context, id int64) error
	SearchContent(ctx context.Context, query string, limit int) ([]content.SearchResult, error)
	SearchTerms(ctx context.Context, query string, limit int) ([]content.SearchResult, error)
	PostTypes(ctx context.Context) ([]string, error)
}
