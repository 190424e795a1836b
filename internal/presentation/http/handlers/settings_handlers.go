package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// SettingsHandlers exposes the editor-tunable settings record
type SettingsHandlers struct {
	settingsService *services.SettingsService
	logger          *logging.ChanneledLogger
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settingsService *services.SettingsService, logger *logging.ChanneledLogger) *SettingsHandlers {
	return &SettingsHandlers{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": services.NewSettingsView(h.settingsService.Snapshot())})
}

// PutSettings handles PUT /api/v1/settings. Omitted fields keep their
// current value.
func (h *SettingsHandlers) PutSettings(c *gin.Context) {
	var req struct {
		CacheTTLSeconds *int64  `json:"cacheTtlSeconds"`
		BatchSize       *int    `json:"batchSize"`
		OutputType      *string `json:"outputType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	next := h.settingsService.Snapshot()
	if req.CacheTTLSeconds != nil {
		next.CacheTTL = time.Duration(*req.CacheTTLSeconds) * time.Second
	}
	if req.BatchSize != nil {
		next.BatchSize = *req.BatchSize
	}
	if req.OutputType != nil {
		next.OutputType = faq.OutputType(*req.OutputType)
	}

	saved, err := h.settingsService.Update(c.Request.Context(), next)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": services.NewSettingsView(saved)})
}
