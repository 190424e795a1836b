package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

func TestArticleFAQEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.page(t, 10, "article", "/a1")

	before, err := f.render.Render(f.ctx, 10)
	require.NoError(t, err)
	assert.True(t, before.Entry.Empty)

	saved := f.faq(t, "What is F1?", "<p>The first FAQ.</p>", faq.PostTypeRule{Types: []string{"article"}})
	require.NotNil(t, saved.Resolution)
	assert.Equal(t, 1, saved.Resolution.Enqueued)

	// Still the stale empty marker until the queue is drained.
	stale, err := f.render.Render(f.ctx, 10)
	require.NoError(t, err)
	assert.True(t, stale.Hit)
	assert.True(t, stale.Entry.Empty)

	run, err := f.drains.Drain(f.ctx, 0, faq.TriggerOperator)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, run.Sample)

	after, err := f.render.Render(f.ctx, 10)
	require.NoError(t, err)
	assert.False(t, after.Hit)
	doc := decode(t, after)
	require.Len(t, doc.MainEntity, 1)
	assert.Equal(t, "What is F1?", doc.MainEntity[0].Name)
	assert.Equal(t, "The first FAQ.", doc.MainEntity[0].AcceptedAnswer.Text)
}

func TestUpdateInvalidatesOldAndNewTargets(t *testing.T) {
	f := newFixture(t)
	saved := f.faq(t, "Q", "A", faq.PostRule{IDs: []int64{1}})
	_, err := f.queue.Pop(f.ctx, 100)
	require.NoError(t, err)

	item := saved.FAQ
	item.Rule = faq.PostRule{IDs: []int64{2}}
	res, err := f.index.Update(f.ctx, item)
	require.NoError(t, err)
	assert.Equal(t, []faq.MappingRow{{FAQID: item.ID, Type: faq.MappingPost, Value: "2"}}, res.Rows)
	assert.Equal(t, 2, res.Resolution.Enqueued)

	ids, err := f.queue.Pop(f.ctx, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestUrlRuleResolvesToPostRow(t *testing.T) {
	f := newFixture(t)
	f.page(t, 31, "page", "https://example.com/pricing/")

	saved := f.faq(t, "Cost?", "Free.", faq.URLRule{URLs: []string{"/pricing?ref=nav", "/unknown"}})
	assert.ElementsMatch(t, []faq.MappingRow{
		{FAQID: saved.FAQ.ID, Type: faq.MappingURL, Value: "https://example.com/pricing"},
		{FAQID: saved.FAQ.ID, Type: faq.MappingPost, Value: "31"},
		{FAQID: saved.FAQ.ID, Type: faq.MappingURL, Value: "https://example.com/unknown"},
	}, saved.Rows)
}

func TestCreateRejectsEmptyQuestion(t *testing.T) {
	f := newFixture(t)
	_, err := f.index.Create(f.ctx, &faq.Item{Question: "  ", Answer: "x"})
	assert.ErrorIs(t, err, faq.ErrInvalidFAQ)
}

func TestDeleteRemovesRowsAndQueuesTargets(t *testing.T) {
	f := newFixture(t)
	saved := f.faq(t, "Q", "A", faq.PostRule{IDs: []int64{8}})
	_, err := f.queue.Pop(f.ctx, 100)
	require.NoError(t, err)

	res, err := f.index.Delete(f.ctx, saved.FAQ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolution.Enqueued)

	rows, err := f.mappings.RowsFor(f.ctx, saved.FAQ.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.index.Delete(f.ctx, saved.FAQ.ID)
	assert.ErrorIs(t, err, faq.ErrFAQNotFound)
}

func TestRecompileIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.page(t, 3, "page", "/x")
	saved := f.faq(t, "Q", "A", faq.URLRule{URLs: []string{"/x", "/x/"}})

	res, err := f.index.Update(f.ctx, saved.FAQ)
	require.NoError(t, err)
	assert.ElementsMatch(t, saved.Rows, res.Rows)
}

func TestReindexPicksUpNewlyResolvableURLs(t *testing.T) {
	f := newFixture(t)
	saved := f.faq(t, "Q", "A", faq.URLRule{URLs: []string{"/later"}})
	assert.Len(t, saved.Rows, 1)
	f.faq(t, "Unchanged", "A", faq.PostRule{IDs: []int64{1}})

	f.page(t, 50, "page", "/later")
	res, err := f.index.Reindex(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FAQs)
	assert.Equal(t, 1, res.Changed)

	rows, err := f.mappings.RowsFor(f.ctx, saved.FAQ.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
