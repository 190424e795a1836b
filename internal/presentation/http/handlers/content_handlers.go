package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/content"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// ContentRequest is the CMS push for one page.
type ContentRequest struct {
	PostType string         `json:"postType" binding:"required"`
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Status   string         `json:"status"`
	Terms    []content.Term `json:"terms"`
}

// ContentHandlers keeps the content mirror in sync and serves autocomplete
type ContentHandlers struct {
	contentService *services.ContentService
	logger         *logging.ChanneledLogger
}

// NewContentHandlers creates content handlers with injected dependencies
func NewContentHandlers(contentService *services.ContentService, logger *logging.ChanneledLogger) *ContentHandlers {
	return &ContentHandlers{
		contentService: contentService,
		logger:         logger,
	}
}

// GetContent handles GET /api/v1/content/:id
func (h *ContentHandlers) GetContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.contentService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": item})
}

// PutContent handles PUT /api/v1/content/:id
func (h *ContentHandlers) PutContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = "publish"
	}
	item := &content.Item{ID: id, PostType: req.PostType, URL: req.URL, Title: req.Title, Status: status, Terms: req.Terms}
	if err := h.contentService.Save(c.Request.Context(), item); err != nil {
		h.logger.Content().Error("Content save failed", "contentId", id, "error", err.Error())
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidContent) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": item})
}

// DeleteContent handles DELETE /api/v1/content/:id
func (h *ContentHandlers) DeleteContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.contentService.Delete(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SearchContent handles GET /api/v1/search/content?q=
func (h *ContentHandlers) SearchContent(c *gin.Context) {
	results, err := h.contentService.SearchContent(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SearchTerms handles GET /api/v1/search/terms?q=
func (h *ContentHandlers) SearchTerms(c *gin.Context) {
	results, err := h.contentService.SearchTerms(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetPostTypes handles GET /api/v1/post-types
func (h *ContentHandlers) GetPostTypes(c *gin.Context) {
	types, err := h.contentService.PostTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if types == nil {
		types = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"postTypes": types})
}
