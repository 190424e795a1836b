package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// FAQRequest is the editor form for one FAQ. A missing or malformed
// association is treated as an empty url list.
type FAQRequest struct {
	Question    string          `json:"question"`
	Answer      string          `json:"answer"`
	Status      string          `json:"status"`
	Association json.RawMessage `json:"association"`
}

func (r FAQRequest) item(id int64) *faq.Item {
	item := &faq.Item{
		ID:       id,
		Question: r.Question,
		Answer:   r.Answer,
		Status:   faq.ParseStatus(r.Status),
		Rule:     faq.DecodePayload(r.Association),
	}
	return item
}

// FAQView is the wire form of a FAQ with its association and index rows.
type FAQView struct {
	*faq.Item
	Association faq.AssociationPayload `json:"association"`
	Rows        []faq.MappingRow       `json:"rows,omitempty"`
}

func newFAQView(item *faq.Item, rows []faq.MappingRow) FAQView {
	view := FAQView{Item: item, Rows: rows}
	if item.Rule != nil {
		view.Association = item.Rule.Payload()
	}
	return view
}

// FAQHandlers contains all FAQ-related HTTP handlers
type FAQHandlers struct {
	indexService *services.IndexService
	logger       *logging.ChanneledLogger
}

// NewFAQHandlers creates FAQ handlers with injected dependencies
func NewFAQHandlers(indexService *services.IndexService, logger *logging.ChanneledLogger) *FAQHandlers {
	return &FAQHandlers{
		indexService: indexService,
		logger:       logger,
	}
}

// GetFAQs handles GET /api/v1/faqs
func (h *FAQHandlers) GetFAQs(c *gin.Context) {
	items, err := h.indexService.List(c.Request.Context(), queryInt(c, "offset", 0), queryInt(c, "limit", 100))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	views := make([]FAQView, 0, len(items))
	for _, item := range items {
		views = append(views, newFAQView(item, nil))
	}
	c.JSON(http.StatusOK, gin.H{"faqs": views, "count": len(views)})
}

// GetFAQ handles GET /api/v1/faqs/:id
func (h *FAQHandlers) GetFAQ(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, rows, err := h.indexService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faq": newFAQView(item, rows)})
}

// PostFAQ handles POST /api/v1/faqs
func (h *FAQHandlers) PostFAQ(c *gin.Context) {
	start := time.Now()
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.indexService.Create(c.Request.Context(), req.item(0))
	if err != nil {
		h.logger.Content().Error("FAQ create failed", "error", err.Error())
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("FAQ create request completed", "faqId", res.FAQ.ID, "rows", len(res.Rows), "duration", time.Since(start))
	c.JSON(http.StatusCreated, gin.H{
		"faq":        newFAQView(res.FAQ, res.Rows),
		"resolution": res.Resolution,
	})
}

// PutFAQ handles PUT /api/v1/faqs/:id
func (h *FAQHandlers) PutFAQ(c *gin.Context) {
	start := time.Now()
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.indexService.Update(c.Request.Context(), req.item(id))
	if err != nil {
		h.logger.Content().Error("FAQ update failed", "faqId", id, "error", err.Error())
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.logger.Content().Info("FAQ update request completed", "faqId", id, "rows", len(res.Rows), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"faq":        newFAQView(res.FAQ, res.Rows),
		"resolution": res.Resolution,
	})
}

// DeleteFAQ handles DELETE /api/v1/faqs/:id
func (h *FAQHandlers) DeleteFAQ(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.indexService.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "resolution": res.Resolution})
}
