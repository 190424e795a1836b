package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/observability/logging"
)

func TestRequestIDEchoesHeaderAndTracesOnDebugChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	cfg := logging.DefaultLoggerConfig()
	cfg.Writer = &buf
	cfg.ChannelLevels[logging.ChannelDebug] = slog.LevelDebug
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestID(logger))
	r.GET("/api/v1/render/:contentId", func(c *gin.Context) {
		assert.Equal(t, "req-1", GetRequestID(c))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/render/10", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Request handled", entry["msg"])
	assert.Equal(t, "debug", entry["channel"])
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "/api/v1/render/:contentId", entry["path"])
	assert.EqualValues(t, http.StatusNoContent, entry["status"])
}

func TestRequestIDAssignsULIDWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestID(logging.NewDiscardLogger()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, w.Header().Get(RequestIDHeader), 26)
}
