package faqs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database/testdb"
)

func TestFAQRepositoryLifecycle(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewFAQRepository(db, logger)
	ctx := context.Background()

	item := &faq.Item{
		Question: "What is it?",
		Answer:   "<p>A thing.</p>",
		Status:   faq.StatusPublish,
		Rule:     faq.PostTypeRule{Types: []string{"article"}},
	}
	require.NoError(t, repo.Store(ctx, item, nil))
	require.NotZero(t, item.ID)

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is it?", got.Question)
	assert.Equal(t, faq.StatusPublish, got.Status)
	assert.Equal(t, faq.PostTypeRule{Types: []string{"article"}}, got.Rule)

	item.Rule = faq.GlobalRule{}
	item.Status = faq.StatusDraft
	require.NoError(t, repo.Update(ctx, item, nil))

	got, err = repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, faq.GlobalRule{}, got.Rule)
	assert.Equal(t, faq.StatusDraft, got.Status)

	require.NoError(t, repo.Delete(ctx, item.ID))
	_, err = repo.FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, faq.ErrFAQNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, item.ID), faq.ErrFAQNotFound)
	assert.ErrorIs(t, repo.Update(ctx, item, nil), faq.ErrFAQNotFound)
}

func TestFAQRepositoryFindByIDsAndPaging(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewFAQRepository(db, logger)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		item := &faq.Item{Question: "Q", Answer: "A", Status: faq.StatusPublish, Rule: faq.URLRule{}}
		require.NoError(t, repo.Store(ctx, item, nil))
		ids = append(ids, item.ID)
	}

	items, err := repo.FindByIDs(ctx, []int64{ids[3], ids[1], 9999})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, ids[1], items[0].ID)
	assert.Equal(t, ids[3], items[1].ID)

	page, err := repo.ListIDs(ctx, ids[1], 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[3]}, page)

	all, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestFAQWritesCarryTheirMappingRows(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewFAQRepository(db, logger)
	mappings := NewMappingRepository(db, logger)
	ctx := context.Background()

	item := &faq.Item{Question: "Q1", Answer: "A", Status: faq.StatusPublish, Rule: faq.PostRule{IDs: []int64{42}}}
	created := []faq.MappingRow{{Type: faq.MappingPost, Value: "42"}}
	require.NoError(t, repo.Store(ctx, item, created))
	assert.Equal(t, item.ID, created[0].FAQID)

	got, err := mappings.RowsFor(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []faq.MappingRow{{FAQID: item.ID, Type: faq.MappingPost, Value: "42"}}, got)

	item.Rule = faq.PostRule{IDs: []int64{99}}
	require.NoError(t, repo.Update(ctx, item, []faq.MappingRow{{FAQID: item.ID, Type: faq.MappingPost, Value: "99"}}))
	got, err = mappings.RowsFor(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []faq.MappingRow{{FAQID: item.ID, Type: faq.MappingPost, Value: "99"}}, got)

	require.NoError(t, repo.Delete(ctx, item.ID))
	got, err = mappings.RowsFor(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFailedRowWriteRollsBackTheItem(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewFAQRepository(db, logger)
	mappings := NewMappingRepository(db, logger)
	ctx := context.Background()
	bad := []faq.MappingRow{{Type: faq.MappingPost, Value: "99"}, {Type: "bogus", Value: "x"}}

	item := &faq.Item{Question: "Q1", Answer: "A", Status: faq.StatusPublish, Rule: faq.PostRule{IDs: []int64{42}}}
	require.NoError(t, repo.Store(ctx, item, []faq.MappingRow{{Type: faq.MappingPost, Value: "42"}}))

	edited := *item
	edited.Question = "Q2"
	edited.Rule = faq.PostRule{IDs: []int64{99}}
	require.Error(t, repo.Update(ctx, &edited, bad))

	got, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1", got.Question)
	assert.Equal(t, faq.PostRule{IDs: []int64{42}}, got.Rule)

	rows, err := mappings.RowsFor(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, []faq.MappingRow{{FAQID: item.ID, Type: faq.MappingPost, Value: "42"}}, rows)

	require.Error(t, repo.Store(ctx, &faq.Item{Question: "Q3", Status: faq.StatusPublish, Rule: faq.PostRule{}}, bad))
	all, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1, "a failed create leaves no item behind")
}
