package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/application/container"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/persistence/database/testdb"
	"github.com/AtRiskMedia/faq-jsonld-go/pkg/config"
)

type harness struct {
	t      *testing.T
	router *gin.Engine
	c      *container.Container
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, logger := testdb.New(t)
	cfg := config.Default()
	cfg.Site.URL = "https://example.com"
	cfg.Auth.JWTSecret = "route-test-secret"
	cfg.Auth.OperatorPassword = "operator"
	cfg.Auth.EditorPassword = "editor"

	c, err := container.NewContainer(cfg, logger, db)
	require.NoError(t, err)
	require.NoError(t, c.SettingsService.Load(t.Context()))
	return &harness{t: t, router: SetupRoutes(c), c: c}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(password string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": password})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestRenderEmptyThenMatched(t *testing.T) {
	h := newHarness(t)
	editor := h.login("editor")
	operator := h.login("operator")

	rec := h.do(http.MethodPut, "/api/v1/content/10", editor, map[string]any{
		"postType": "article", "url": "/a1", "title": "A1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/v1/render/10", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-FAQ-Cache"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = h.do(http.MethodGet, "/api/v1/render/10", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-FAQ-Cache"))

	rec = h.do(http.MethodPost, "/api/v1/faqs", editor, map[string]any{
		"question":    "What is F1?",
		"answer":      "<p>The first one.</p>",
		"status":      "publish",
		"association": map[string]any{"type": "post_types", "post_types": []string{"article"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/v1/ops/drain", operator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"processed":1`)

	rec = h.do(http.MethodGet, "/api/v1/render/10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-FAQ-Cache"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<script type="application/ld+json">`))
	assert.Contains(t, body, "What is F1?")
	assert.Contains(t, body, "The first one.")

	rec = h.do(http.MethodGet, "/api/v1/jsonld/10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/ld+json", rec.Header().Get("Content-Type"))
}

func TestRoleEnforcement(t *testing.T) {
	h := newHarness(t)
	editor := h.login("editor")

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/v1/ops/purge", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/v1/ops/purge", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/v1/ops/purge", editor, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/api/v1/settings", editor, map[string]any{"batchSize": 50}).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/v1/faqs", "", nil).Code)

	operator := h.login("operator")
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/faqs", operator, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/v1/ops/purge", operator, nil).Code)

	rec := h.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	h := newHarness(t)
	operator := h.login("operator")

	rec := h.do(http.MethodPut, "/api/v1/settings", operator, map[string]any{"batchSize": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, "/api/v1/settings", operator, map[string]any{"batchSize": 50, "outputType": "FAQPage"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"batchSize":50`)

	rec = h.do(http.MethodGet, "/api/v1/settings", operator, nil)
	assert.Contains(t, rec.Body.String(), `"outputType":"FAQPage"`)
}

func TestFAQValidationAndNotFound(t *testing.T) {
	h := newHarness(t)
	editor := h.login("editor")

	rec := h.do(http.MethodPost, "/api/v1/faqs", editor, map[string]any{"question": " ", "answer": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/faqs/999", editor, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/faqs/abc", editor, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A malformed association degrades to an empty url rule.
	rec = h.do(http.MethodPost, "/api/v1/faqs", editor, map[string]any{"question": "Q", "answer": "A", "association": "nonsense"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"type":"urls"`)
}

func TestHealthAndSearch(t *testing.T) {
	h := newHarness(t)
	editor := h.login("editor")
	operator := h.login("operator")

	h.do(http.MethodPut, "/api/v1/content/5", editor, map[string]any{
		"postType": "page", "url": "/pricing", "title": "Pricing",
		"terms": []map[string]any{{"id": 3, "taxonomy": "category", "name": "Billing"}},
	})

	rec := h.do(http.MethodGet, "/api/v1/search/content?q=pric", editor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pricing")

	rec = h.do(http.MethodGet, "/api/v1/search/terms?q=bill", editor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Billing")

	rec = h.do(http.MethodGet, "/api/v1/post-types", editor, nil)
	assert.Contains(t, rec.Body.String(), `"page"`)

	h.do(http.MethodPost, "/api/v1/ops/drain", operator, nil)
	rec = h.do(http.MethodGet, "/api/v1/ops/health", operator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queueLength":0`)
	assert.Contains(t, rec.Body.String(), `"processed":0`)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/v1/ops/log", operator, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/v1/ops/reindex", operator, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/api/v1/render/1", "", nil)
	rec := h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "faqjsonld_render_cache_misses_total")
}
