package services

import "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"

// RenderCache is the subset of the render store the services use.
type RenderCache interface {
	Get(contentID int64) (*stores.RenderEntry, bool)
	Generation() uint64
	SetIfCurrent(entry *stores.RenderEntry, gen uint64) bool
	Invalidate(ids ...int64) int
	Purge() int
	PurgeExpired() int
	Len() int
	Stats() stores.Stats
}
