package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/repositories"
	domainservices "github.com/AtRiskMedia/faq-jsonld-go/internal/domain/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

const maxSearchResults = 50

var ErrInvalidContent = errors.New("invalid content")

// ContentService keeps the CMS mirror current. A content save only touches
// that page's render entry, so it skips the queue.
type ContentService struct {
	repo     repositories.ContentRepository
	compiler *domainservices.RuleCompiler
	renders  RenderCache
	logger   *logging.ChanneledLogger
}

func NewContentService(
	repo repositories.ContentRepository,
	compiler *domainservices.RuleCompiler,
	renders RenderCache,
	logger *logging.ChanneledLogger,
) *ContentService {
	return &ContentService{repo: repo, compiler: compiler, renders: renders, logger: logger}
}

func (s *ContentService) Save(ctx context.Context, item *content.Item) error {
	if item == nil || item.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidContent)
	}
	item.PostType = faq.SanitizePostType(item.PostType)
	if item.URL != "" {
		canonical, ok := s.compiler.NormalizeURL(item.URL)
		if !ok {
			return fmt.Errorf("%w: url %q is not valid", ErrInvalidContent, item.URL)
		}
		item.URL = canonical
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to save content %d: %w", item.ID, err)
	}

	removed := s.renders.Invalidate(item.ID)
	s.logger.Content().Info("Content saved",
		"contentId", item.ID, "postType", item.PostType, "terms", len(item.Terms), "cacheDropped", removed > 0)
	return nil
}

func (s *ContentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.renders.Invalidate(id)
	s.logger.Content().Info("Content deleted", "contentId", id)
	return nil
}

func (s *ContentService) Get(ctx context.Context, id int64) (*content.Item, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ContentService) SearchContent(ctx context.Context, query string, limit int) ([]content.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []content.SearchResult{}, nil
	}
	return s.repo.SearchContent(ctx, query, clampLimit(limit))
}

func (s *ContentService) SearchTerms(ctx context.Context, query string, limit int) ([]content.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []content.SearchResult{}, nil
	}
	return s.repo.SearchTerms(ctx, query, clampLimit(limit))
}

func (s *ContentService) PostTypes(ctx context.Context) ([]string, error) {
	return s.repo.PostTypes(ctx)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxSearchResults {
		return maxSearchResults
	}
	return limit
}
