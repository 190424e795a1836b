package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database/testdb"
)

func seed(t *testing.T, repo *ContentRepository) {
	t.Helper()
	ctx := context.Background()
	items := []*content.Item{
		{ID: 1, PostType: "article", URL: "https://example.com/one", Title: "One", Status: "publish",
			Terms: []content.Term{{ID: 100, Taxonomy: "category", Name: "News"}}},
		{ID: 2, PostType: "page", URL: "https://example.com/two", Title: "Two", Status: "publish"},
		{ID: 3, PostType: "article", URL: "https://example.com/three", Title: "Three 100%", Status: "publish",
			Terms: []content.Term{{ID: 100, Taxonomy: "category", Name: "News"}, {ID: 101, Taxonomy: "post_tag", Name: "Go"}}},
		{ID: 4, PostType: "article", URL: "https://example.com/four", Title: "Four", Status: "draft"},
	}
	for _, item := range items {
		require.NoError(t, repo.Upsert(ctx, item))
	}
}

func TestContentFindAndURL(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewContentRepository(db, logger)
	seed(t, repo)
	ctx := context.Background()

	item, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "article", item.PostType)
	assert.Equal(t, []int64{100, 101}, item.TermIDs())

	id, ok, err := repo.FindIDByURL(ctx, "https://example.com/two")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok, err = repo.FindIDByURL(ctx, "https://example.com/nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, faq.ErrContentNotFound)
}

func TestContentPaging(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewContentRepository(db, logger)
	seed(t, repo)
	ctx := context.Background()

	page, err := repo.IDsByPostType(ctx, "article", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, page)

	page, err = repo.IDsByPostType(ctx, "article", 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, page)

	page, err = repo.IDsByTerm(ctx, 100, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, page)
}

func TestContentUpsertReplacesTermsAndType(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewContentRepository(db, logger)
	seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &content.Item{ID: 3, PostType: "page", URL: "https://example.com/three", Title: "Three"}))

	item, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "page", item.PostType)
	assert.Empty(t, item.Terms)

	page, err := repo.IDsByTerm(ctx, 100, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, page)

	require.NoError(t, repo.Delete(ctx, 3))
	assert.ErrorIs(t, repo.Delete(ctx, 3), faq.ErrContentNotFound)
}

func TestContentSearch(t *testing.T) {
	db, logger := testdb.New(t)
	repo := NewContentRepository(db, logger)
	seed(t, repo)
	ctx := context.Background()

	results, err := repo.SearchContent(ctx, "t", 10)
	require.NoError(t, err)
	var labels []string
	for _, r := range results {
		labels = append(labels, r.Label)
	}
	assert.Equal(t, []string{"Three 100%", "Two"}, labels)

	results, err = repo.SearchContent(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].ID)

	results, err = repo.SearchContent(ctx, "2", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)

	terms, err := repo.SearchTerms(ctx, "ne", 10)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, "category", terms[0].Kind)

	types, err := repo.PostTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"article", "page"}, types)
}
