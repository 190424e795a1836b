package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(now *time.Time) *RenderStore {
	s := NewRenderStore(100)
	s.now = func() time.Time { return *now }
	return s
}

func TestEmptyMarkerIsAHit(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	_, ok := s.Get(5)
	assert.False(t, ok, "not yet computed")

	s.SetIfCurrent(&RenderEntry{ContentID: 5, Empty: true, ExpiresAt: now.Add(time.Hour)}, s.Generation())
	entry, ok := s.Get(5)
	require.True(t, ok)
	assert.True(t, entry.Empty)
	assert.Equal(t, "", entry.Fragment())
}

func TestFragmentWrapsJSON(t *testing.T) {
	e := &RenderEntry{JSON: `{"a":1}`}
	assert.Equal(t, `<script type="application/ld+json">{"a":1}</script>`, e.Fragment())
}

func TestEntriesExpire(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	s.SetIfCurrent(&RenderEntry{ContentID: 1, JSON: "{}", ExpiresAt: now.Add(time.Minute)}, s.Generation())
	s.SetIfCurrent(&RenderEntry{ContentID: 2, JSON: "{}", ExpiresAt: now.Add(time.Hour)}, s.Generation())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.PurgeExpired())
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Hour)
	_, ok := s.Get(2)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestInvalidateAndPurge(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)
	for id := int64(1); id <= 4; id++ {
		s.SetIfCurrent(&RenderEntry{ContentID: id, ExpiresAt: now.Add(time.Hour), Empty: true}, s.Generation())
	}

	assert.Equal(t, 2, s.Invalidate(1, 2, 99))
	assert.Equal(t, 0, s.Invalidate(1), "second invalidation is a no-op")
	assert.Equal(t, 2, s.Purge())
	assert.Zero(t, s.Len())
}

func TestSetIfCurrentRejectsStaleWrites(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)

	gen := s.Generation()
	s.Invalidate(7)
	stored := s.SetIfCurrent(&RenderEntry{ContentID: 7, ExpiresAt: now.Add(time.Hour)}, gen)
	assert.False(t, stored)
	_, ok := s.Get(7)
	assert.False(t, ok)

	gen = s.Generation()
	assert.True(t, s.SetIfCurrent(&RenderEntry{ContentID: 7, ExpiresAt: now.Add(time.Hour)}, gen))
}

func TestStats(t *testing.T) {
	now := time.Now()
	s := newTestStore(&now)
	s.SetIfCurrent(&RenderEntry{ContentID: 1, Empty: true, ExpiresAt: now.Add(time.Hour)}, s.Generation())
	s.SetIfCurrent(&RenderEntry{ContentID: 2, JSON: "{}", ExpiresAt: now.Add(time.Hour)}, s.Generation())

	st := s.Stats()
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, 1, st.Empty)
}

func TestLeastRecentlyUsedIsEvictedAtCapacity(t *testing.T) {
	now := time.Now()
	s := NewRenderStore(2)
	s.now = func() time.Time { return now }

	s.SetIfCurrent(&RenderEntry{ContentID: 1, Empty: true, ExpiresAt: now.Add(time.Hour)}, s.Generation())
	s.SetIfCurrent(&RenderEntry{ContentID: 2, Empty: true, ExpiresAt: now.Add(time.Hour)}, s.Generation())
	_, ok := s.Get(1)
	require.True(t, ok)

	s.SetIfCurrent(&RenderEntry{ContentID: 3, Empty: true, ExpiresAt: now.Add(time.Hour)}, s.Generation())
	assert.Equal(t, 2, s.Len())
	_, ok = s.Get(2)
	assert.False(t, ok)
	_, ok = s.Get(1)
	assert.True(t, ok)
}
