package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/services"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

// OpsHandlers handles operator queue, cache and logging actions
type OpsHandlers struct {
	queueService *services.QueueService
	indexService *services.IndexService
	broadcaster  *messaging.HealthBroadcaster
	logger       *logging.ChanneledLogger
	upgrader     websocket.Upgrader
}

// NewOpsHandlers creates operator handlers with injected dependencies
func NewOpsHandlers(
	queueService *services.QueueService,
	indexService *services.IndexService,
	broadcaster *messaging.HealthBroadcaster,
	logger *logging.ChanneledLogger,
) *OpsHandlers {
	return &OpsHandlers{
		queueService: queueService,
		indexService: indexService,
		broadcaster:  broadcaster,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Operators authenticate with a bearer token, so the origin is not trusted for auth.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// PostDrain handles POST /api/v1/ops/drain?limit=N
func (h *OpsHandlers) PostDrain(c *gin.Context) {
	var body struct {
		Limit int `json:"limit"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}
	limit := queryInt(c, "limit", body.Limit)
	if limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit cannot be negative"})
		return
	}

	run, err := h.queueService.Drain(c.Request.Context(), limit, faq.TriggerOperator)
	if err != nil {
		h.logger.Queue().Error("Operator drain failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// PostPurge handles POST /api/v1/ops/purge
func (h *OpsHandlers) PostPurge(c *gin.Context) {
	purged := h.queueService.PurgeCache()
	c.JSON(http.StatusOK, gin.H{"success": true, "purged": purged})
}

// GetHealth handles GET /api/v1/ops/health
func (h *OpsHandlers) GetHealth(c *gin.Context) {
	health, err := h.queueService.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, health)
}

// DeleteLog handles DELETE /api/v1/ops/log
func (h *OpsHandlers) DeleteLog(c *gin.Context) {
	if err := h.queueService.ClearLog(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostReindex handles POST /api/v1/ops/reindex
func (h *OpsHandlers) PostReindex(c *gin.Context) {
	result, err := h.indexService.Reindex(c.Request.Context())
	if err != nil {
		h.logger.Index().Error("Reindex failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "partial": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reindex": result})
}

// GetHealthStream handles GET /api/v1/ops/health/stream - websocket snapshots
func (h *OpsHandlers) GetHealthStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.System().Warn("Health stream upgrade failed", "error", err.Error())
		return
	}

	client := messaging.NewHealthClient(conn)
	if !h.broadcaster.Register(client) {
		conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump()
	h.broadcaster.Unregister(client)
}

// GetLogLevels handles GET /api/v1/ops/logs/levels - returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// PostLogLevel handles POST /api/v1/ops/logs/levels - sets the log level for a specific channel.
func (h *OpsHandlers) PostLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch strings.ToUpper(req.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), logging.ParseLevel(req.Level)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, strings.ToUpper(req.Level))})
}
