// Package stores provides the in-memory render cache.
package stores

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/metrics"
)

const scriptOpen = `<script type="application/ld+json">`
const scriptClose = `</script>`

// RenderEntry is the cached result of resolving one content ID. Empty marks a
// computed result with no FAQs, which is still a hit.
type RenderEntry struct {
	ContentID int64     `json:"contentId"`
	JSON      string    `json:"json,omitempty"`
	Empty     bool      `json:"empty"`
	FAQIDs    []int64   `json:"faqIds,omitempty"`
	CachedAt  time.Time `json:"cachedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Fragment is the HTML to inject into the page head, or "" for the empty marker.
func (e *RenderEntry) Fragment() string {
	if e.Empty || e.JSON == "" {
		return ""
	}
	return scriptOpen + e.JSON + scriptClose
}

// RenderStore is a bounded LRU of render entries keyed by content ID. The LRU
// itself never expires entries; each entry carries its own deadline because
// the TTL setting can change while the process runs.
type RenderStore struct {
	cache *lru.Cache[int64, *RenderEntry]
	// generation advances on every invalidation so a resolution that started
	// before it cannot write back a stale result.
	generation atomic.Uint64
	writeMu    sync.Mutex
	now        func() time.Time
}

const defaultMaxEntries = 50000

func NewRenderStore(maxEntries int) *RenderStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[int64, *RenderEntry](maxEntries)
	return &RenderStore{cache: cache, now: time.Now}
}

// Get returns a live entry. Expired entries are dropped and reported as misses.
func (s *RenderStore) Get(contentID int64) (*RenderEntry, bool) {
	entry, ok := s.cache.Get(contentID)
	if ok && !s.now().Before(entry.ExpiresAt) {
		s.cache.Remove(contentID)
		metrics.RenderCacheEvictions.WithLabelValues("expired").Inc()
		ok = false
	}
	if ok {
		metrics.RenderCacheHits.Inc()
		return entry, true
	}
	metrics.RenderCacheMisses.Inc()
	return nil, false
}

// Generation returns the token a resolver passes back to SetIfCurrent.
func (s *RenderStore) Generation() uint64 {
	return s.generation.Load()
}

// SetIfCurrent stores entry unless an invalidation happened since gen was
// read. It reports whether the entry was stored.
func (s *RenderStore) SetIfCurrent(entry *RenderEntry, gen uint64) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.cache.Add(entry.ContentID, entry)
	metrics.RenderCacheEntries.Set(float64(s.cache.Len()))
	return true
}

// Invalidate removes the given IDs and returns how many were present.
// Removing an absent ID is a no-op.
func (s *RenderStore) Invalidate(ids ...int64) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.generation.Add(1)

	removed := 0
	for _, id := range ids {
		if s.cache.Remove(id) {
			removed++
		}
	}
	metrics.RenderCacheEvictions.WithLabelValues("invalidate").Add(float64(removed))
	metrics.RenderCacheEntries.Set(float64(s.cache.Len()))
	return removed
}

// Purge drops every entry and returns how many there were.
func (s *RenderStore) Purge() int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.generation.Add(1)

	n := s.cache.Len()
	s.cache.Purge()
	metrics.RenderCacheEvictions.WithLabelValues("purge").Add(float64(n))
	metrics.RenderCacheEntries.Set(0)
	return n
}

// PurgeExpired sweeps entries whose deadline has passed.
func (s *RenderStore) PurgeExpired() int {
	now := s.now()
	removed := 0
	for _, id := range s.cache.Keys() {
		entry, ok := s.cache.Peek(id)
		if ok && !now.Before(entry.ExpiresAt) {
			if s.cache.Remove(id) {
				removed++
			}
		}
	}
	if removed > 0 {
		metrics.RenderCacheEvictions.WithLabelValues("expired").Add(float64(removed))
		metrics.RenderCacheEntries.Set(float64(s.cache.Len()))
	}
	return removed
}

func (s *RenderStore) Len() int {
	return s.cache.Len()
}

// Stats is a point-in-time summary for health endpoints.
type Stats struct {
	Entries    int    `json:"entries"`
	Empty      int    `json:"emptyMarkers"`
	Generation uint64 `json:"generation"`
}

func (s *RenderStore) Stats() Stats {
	st := Stats{Generation: s.generation.Load()}
	for _, entry := range s.cache.Values() {
		st.Entries++
		if entry.Empty {
			st.Empty++
		}
	}
	return st
}
