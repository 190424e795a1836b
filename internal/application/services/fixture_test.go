package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	domainservices "github.com/AtRiskMedia/faq-jsonld-go/internal/domain/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
	contentrepo "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database/testdb"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/faqs"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/queue"
	settingsrepo "github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/settings"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

type fixture struct {
	ctx      context.Context
	content  *contentrepo.ContentRepository
	mappings *faqs.MappingRepository
	faqs     *faqs.FAQRepository
	queue    *queue.QueueRepository
	runs     *queue.RunLogRepository
	renders  *stores.RenderStore
	settings *SettingsService
	resolver *InvalidationResolver
	index    *IndexService
	drains   *QueueService
	render   *RenderService
	pages    *ContentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, logger := testdb.New(t)
	ctx := context.Background()

	f := &fixture{
		ctx:      ctx,
		content:  contentrepo.NewContentRepository(db, logger),
		mappings: faqs.NewMappingRepository(db, logger),
		faqs:     faqs.NewFAQRepository(db, logger),
		queue:    queue.NewQueueRepository(db, logger),
		runs:     queue.NewRunLogRepository(db, logger),
		renders:  stores.NewRenderStore(1000),
	}

	seed := faq.Settings{CacheTTL: 12 * time.Hour, BatchSize: 500, OutputType: faq.OutputFAQSection}
	f.settings = NewSettingsService(settingsrepo.NewSettingsRepository(db, logger), seed, logger)
	require.NoError(t, f.settings.Load(ctx))

	compiler, err := domainservices.NewRuleCompiler("https://example.com", f.content, logger.Index())
	require.NoError(t, err)

	f.resolver = NewInvalidationResolver(f.content, f.queue, f.renders, logger)
	f.index = NewIndexService(f.faqs, f.mappings, compiler, f.resolver, f.settings, logger)
	f.drains = NewQueueService(f.queue, f.runs, f.renders, f.settings, config.QueueConfig{
		Retention:  24 * time.Hour,
		LogCap:     200,
		SampleSize: 20,
	}, logger)
	f.render = NewRenderService(f.content, f.mappings, f.faqs, compiler, f.renders, f.settings, logger)
	f.pages = NewContentService(f.content, compiler, f.renders, logger)
	return f
}

func (f *fixture) page(t *testing.T, id int64, postType, url string, terms ...int64) {
	t.Helper()
	item := &content.Item{ID: id, PostType: postType, URL: url, Title: "page", Status: "publish"}
	for _, term := range terms {
		item.Terms = append(item.Terms, content.Term{ID: term, Taxonomy: "category", Name: "term"})
	}
	require.NoError(t, f.pages.Save(f.ctx, item))
}

func (f *fixture) faq(t *testing.T, question, answer string, rule faq.Rule) *SaveResult {
	t.Helper()
	res, err := f.index.Create(f.ctx, &faq.Item{
		Question: question,
		Answer:   answer,
		Status:   faq.StatusPublish,
		Rule:     rule,
	})
	require.NoError(t, err)
	return res
}
