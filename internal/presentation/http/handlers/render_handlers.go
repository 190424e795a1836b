package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/presentation/http/middleware"
)

// RenderHandlers serves the JSON-LD fragment for a page view
type RenderHandlers struct {
	renderService *services.RenderService
	logger        *logging.ChanneledLogger
}

// NewRenderHandlers creates render handlers with injected dependencies
func NewRenderHandlers(renderService *services.RenderService, logger *logging.ChanneledLogger) *RenderHandlers {
	return &RenderHandlers{
		renderService: renderService,
		logger:        logger,
	}
}

func cacheOutcome(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// GetRender handles GET /api/v1/render/:contentId - returns the script fragment
// or 204 when the page has no FAQs
func (h *RenderHandlers) GetRender(c *gin.Context) {
	start := time.Now()
	contentID, ok := parseID(c, "contentId")
	if !ok {
		return
	}

	result, err := h.renderService.Render(c.Request.Context(), contentID)
	if err != nil {
		h.logger.WithContext(logging.ChannelRender, c.Request.Context()).Error("Render failed", "contentId", contentID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}

	c.Header(middleware.CacheHeader, cacheOutcome(result.Hit))
	h.logger.Perf().Debug("Render request completed", "contentId", contentID, "hit", result.Hit, "empty", result.Entry.Empty, "duration", time.Since(start))

	fragment := result.Entry.Fragment()
	if fragment == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}

// GetJSONLD handles GET /api/v1/jsonld/:contentId - returns the raw document
func (h *RenderHandlers) GetJSONLD(c *gin.Context) {
	contentID, ok := parseID(c, "contentId")
	if !ok {
		return
	}

	result, err := h.renderService.Render(c.Request.Context(), contentID)
	if err != nil {
		h.logger.WithContext(logging.ChannelRender, c.Request.Context()).Error("JSON-LD lookup failed", "contentId", contentID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}

	c.Header(middleware.CacheHeader, cacheOutcome(result.Hit))
	if result.Entry.Empty {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/ld+json", []byte(result.Entry.JSON))
}
