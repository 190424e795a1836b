package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
)

type countingMappings struct {
	repositories.MappingRepository
	lookups atomic.Int32
}

func (c *countingMappings) FindFAQIDs(ctx context.Context, candidates []faq.Candidate) ([]int64, error) {
	c.lookups.Add(1)
	return c.MappingRepository.FindFAQIDs(ctx, candidates)
}

func decode(t *testing.T, res *RenderResult) Document {
	t.Helper()
	require.False(t, res.Entry.Empty)
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(res.Entry.JSON), &doc))
	return doc
}

func questions(doc Document) []string {
	var out []string
	for _, q := range doc.MainEntity {
		out = append(out, q.Name)
	}
	return out
}

func TestRenderDirectMatch(t *testing.T) {
	f := newFixture(t)
	f.faq(t, "Shipping?", "<p>Two days.</p>", faq.PostRule{IDs: []int64{42}})

	res, err := f.render.Render(f.ctx, 42)
	require.NoError(t, err)
	assert.False(t, res.Hit)
	doc := decode(t, res)
	assert.Equal(t, "https://schema.org", doc.Context)
	assert.Equal(t, "FAQSection", doc.Type)
	require.Len(t, doc.MainEntity, 1)
	assert.Equal(t, "Shipping?", doc.MainEntity[0].Name)
	assert.Equal(t, "Answer", doc.MainEntity[0].AcceptedAnswer.Type)
	assert.Equal(t, "Two days.", doc.MainEntity[0].AcceptedAnswer.Text)
	assert.True(t, strings.HasPrefix(res.Entry.Fragment(), `<script type="application/ld+json">`))

	other, err := f.render.Render(f.ctx, 43)
	require.NoError(t, err)
	assert.True(t, other.Entry.Empty)
	assert.Equal(t, "", other.Entry.Fragment())
}

func TestRenderGlobalAppearsEverywhere(t *testing.T) {
	f := newFixture(t)
	f.page(t, 5, "page", "/about")
	f.faq(t, "Who are you?", "Us.", faq.GlobalRule{})

	for _, id := range []int64{5, 6, 999} {
		res, err := f.render.Render(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"Who are you?"}, questions(decode(t, res)), "content %d", id)
	}
}

func TestRenderOrdersByFAQIDAndSkipsUnrenderable(t *testing.T) {
	f := newFixture(t)
	f.page(t, 7, "article", "/a", 3)
	f.faq(t, "First", "a", faq.TermRule{IDs: []int64{3}})
	f.faq(t, "Second", "b", faq.URLRule{URLs: []string{"https://EXAMPLE.com/a/?utm=1"}})
	_, err := f.index.Create(f.ctx, &faq.Item{Question: "Draft", Answer: "c", Status: faq.StatusDraft, Rule: faq.PostRule{IDs: []int64{7}}})
	require.NoError(t, err)
	f.faq(t, "No answer", "  ", faq.PostRule{IDs: []int64{7}})
	f.faq(t, "Third", "d", faq.PostTypeRule{Types: []string{"article"}})

	res, err := f.render.Render(f.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second", "Third"}, questions(decode(t, res)))
}

func TestRenderTypeChangeDropsFAQ(t *testing.T) {
	f := newFixture(t)
	f.page(t, 20, "article", "/story")
	f.faq(t, "About articles", "yes", faq.PostTypeRule{Types: []string{"article"}})

	res, err := f.render.Render(f.ctx, 20)
	require.NoError(t, err)
	assert.Len(t, decode(t, res).MainEntity, 1)

	f.page(t, 20, "page", "/story")

	res, err = f.render.Render(f.ctx, 20)
	require.NoError(t, err)
	assert.False(t, res.Hit)
	assert.True(t, res.Entry.Empty)
}

func TestRenderCachesEmptyMarker(t *testing.T) {
	f := newFixture(t)
	probe := &countingMappings{MappingRepository: f.mappings}
	f.render.mappings = probe

	_, ok := f.renders.Get(77)
	assert.False(t, ok)

	first, err := f.render.Render(f.ctx, 77)
	require.NoError(t, err)
	assert.False(t, first.Hit)
	assert.True(t, first.Entry.Empty)

	second, err := f.render.Render(f.ctx, 77)
	require.NoError(t, err)
	assert.True(t, second.Hit)
	assert.True(t, second.Entry.Empty)
	assert.Equal(t, int32(1), probe.lookups.Load())
}

func TestRenderCollapsesConcurrentMisses(t *testing.T) {
	f := newFixture(t)
	probe := &countingMappings{MappingRepository: f.mappings}
	f.render.mappings = probe
	f.faq(t, "Q", "A", faq.PostRule{IDs: []int64{1}})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.render.Render(f.ctx, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, probe.lookups.Load(), int32(16))
	assert.GreaterOrEqual(t, probe.lookups.Load(), int32(1))
}

func TestRenderHonorsOutputType(t *testing.T) {
	f := newFixture(t)
	f.faq(t, "Q", "A", faq.GlobalRule{})
	next := f.settings.Snapshot()
	next.OutputType = faq.OutputFAQPage
	_, err := f.settings.Update(f.ctx, next)
	require.NoError(t, err)

	res, err := f.render.Render(f.ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "FAQPage", decode(t, res).Type)
}

func TestRenderStaleResolutionIsNotCached(t *testing.T) {
	f := newFixture(t)
	gen := f.renders.Generation()
	f.renders.Invalidate(9)

	entry, err := f.render.resolve(f.ctx, 9)
	require.NoError(t, err)
	assert.True(t, f.renders.SetIfCurrent(entry, f.renders.Generation()))
	assert.False(t, f.renders.SetIfCurrent(entry, gen))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello world and more", PlainText("<p>Hello <b>world</b></p>\n<p>and   more</p>"))
	assert.Equal(t, "kept", PlainText("<script>alert(1)</script>kept<style>p{}</style>"))
	assert.Equal(t, "a & b", PlainText("a &amp; b"))
	assert.Equal(t, "", PlainText("<br/>   "))
}
