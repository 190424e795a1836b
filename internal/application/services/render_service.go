package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/faq-jsonld-go/internal/domain/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/metrics"
)

const schemaContext = "https://schema.org"

// Document is the JSON-LD payload injected into a page.
type Document struct {
	Context    string     `json:"@context"`
	Type       string     `json:"@type"`
	MainEntity []Question `json:"mainEntity"`
}

type Question struct {
	Type           string `json:"@type"`
	Name           string `json:"name"`
	AcceptedAnswer Answer `json:"acceptedAnswer"`
}

type Answer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

// RenderResult is one lookup. Hit is false when this call (or the call it
// joined) had to resolve.
type RenderResult struct {
	Entry *stores.RenderEntry
	Hit   bool
}

// RenderService answers page views from the render cache and resolves misses
// against the mapping store.
type RenderService struct {
	content  repositories.ContentRepository
	mappings repositories.MappingRepository
	faqs     repositories.FAQRepository
	compiler *domainservices.RuleCompiler
	renders  RenderCache
	settings *SettingsService
	logger   *logging.ChanneledLogger
	group    singleflight.Group
	now      func() time.Time
}

func NewRenderService(
	content repositories.ContentRepository,
	mappings repositories.MappingRepository,
	faqs repositories.FAQRepository,
	compiler *domainservices.RuleCompiler,
	renders RenderCache,
	settings *SettingsService,
	logger *logging.ChanneledLogger,
) *RenderService {
	return &RenderService{
		content:  content,
		mappings: mappings,
		faqs:     faqs,
		compiler: compiler,
		renders:  renders,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Render returns the cached entry for contentID, resolving it on a miss.
// Concurrent misses for one ID share a single resolution.
func (s *RenderService) Render(ctx context.Context, contentID int64) (*RenderResult, error) {
	start := time.Now()
	if entry, ok := s.renders.Get(contentID); ok {
		s.logger.LogCacheOperation("get", contentID, true, time.Since(start))
		return &RenderResult{Entry: entry, Hit: true}, nil
	}

	// The shared resolution outlives any one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(strconv.FormatInt(contentID, 10), func() (any, error) {
		return s.resolve(shared, contentID)
	})
	if err != nil {
		metrics.RenderResolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	s.logger.LogCacheOperation("get", contentID, false, time.Since(start))
	return &RenderResult{Entry: v.(*stores.RenderEntry)}, nil
}

func (s *RenderService) resolve(ctx context.Context, contentID int64) (*stores.RenderEntry, error) {
	start := time.Now()
	gen := s.renders.Generation()
	snap := s.settings.Snapshot()

	candidates, err := s.Candidates(ctx, contentID)
	if err != nil {
		return nil, err
	}
	faqIDs, err := s.mappings.FindFAQIDs(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to match faqs for content %d: %w", contentID, err)
	}

	var items []*faq.Item
	if len(faqIDs) > 0 {
		found, err := s.faqs.FindByIDs(ctx, faqIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load faqs for content %d: %w", contentID, err)
		}
		for _, item := range found {
			if item.Renderable() {
				items = append(items, item)
			}
		}
	}

	now := s.now()
	entry := &stores.RenderEntry{
		ContentID: contentID,
		CachedAt:  now,
		ExpiresAt: now.Add(snap.CacheTTL),
	}
	doc := BuildDocument(snap.OutputType, items)
	if doc == nil {
		entry.Empty = true
		metrics.RenderResolutions.WithLabelValues("empty").Inc()
	} else {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode json-ld for content %d: %w", contentID, err)
		}
		entry.JSON = string(raw)
		for _, item := range items {
			entry.FAQIDs = append(entry.FAQIDs, item.ID)
		}
		metrics.RenderResolutions.WithLabelValues("match").Inc()
	}

	stored := s.renders.SetIfCurrent(entry, gen)
	duration := time.Since(start)
	metrics.RenderDuration.Observe(duration.Seconds())

	s.logger.Render().Debug("Render resolved",
		"contentId", contentID, "candidates", len(candidates), "matched", len(faqIDs),
		"rendered", len(entry.FAQIDs), "cached", stored, "duration", duration)
	return entry, nil
}

// Candidates builds the lookup keys for one page. Content missing from the
// mirror still matches by ID and the global sentinel.
func (s *RenderService) Candidates(ctx context.Context, contentID int64) ([]faq.Candidate, error) {
	out := []faq.Candidate{{Type: faq.MappingPost, Value: strconv.FormatInt(contentID, 10)}}

	item, err := s.content.FindByID(ctx, contentID)
	switch {
	case errors.Is(err, faq.ErrContentNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load content %d: %w", contentID, err)
	default:
		if pt := faq.SanitizePostType(item.PostType); pt != "" {
			out = append(out, faq.Candidate{Type: faq.MappingPostType, Value: pt})
		}
		for _, id := range item.TermIDs() {
			out = append(out, faq.Candidate{Type: faq.MappingTerm, Value: strconv.FormatInt(id, 10)})
		}
		if canonical, ok := s.compiler.NormalizeURL(item.URL); ok {
			out = append(out, faq.Candidate{Type: faq.MappingURL, Value: canonical})
		}
	}

	return append(out, faq.Candidate{Type: faq.MappingGlobal, Value: faq.GlobalValue}), nil
}

// BuildDocument returns nil when no item survives the text extraction.
func BuildDocument(outputType faq.OutputType, items []*faq.Item) *Document {
	if outputType == "" {
		outputType = faq.OutputFAQSection
	}
	doc := &Document{Context: schemaContext, Type: string(outputType)}
	for _, item := range items {
		name := PlainText(item.Question)
		text := PlainText(item.Answer)
		if name == "" || text == "" {
			continue
		}
		doc.MainEntity = append(doc.MainEntity, Question{
			Type:           "Question",
			Name:           name,
			AcceptedAnswer: Answer{Type: "Answer", Text: text},
		})
	}
	if len(doc.MainEntity) == 0 {
		return nil
	}
	return doc
}
