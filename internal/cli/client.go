package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

// Client talks to the operator endpoints of a running faq-jsonld server.
type Client struct {
	base     string
	password string
	http     *http.Client
	token    string
}

func NewClient(base, password string, timeout time.Duration) *Client {
	return &Client{
		base:     strings.TrimRight(base, "/"),
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Login exchanges the password for a bearer token. Later calls reuse it.
func (c *Client) Login(ctx context.Context) error {
	if c.password == "" {
		return fmt.Errorf("no password given: use --password or FAQJ_PASSWORD")
	}
	var out struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{"password": c.password}, &out); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if out.Role != "operator" {
		return fmt.Errorf("password grants role %q, operator required", out.Role)
	}
	c.token = out.Token
	return nil
}

func (c *Client) Drain(ctx context.Context, limit int) (*faq.QueueRun, error) {
	path := "/api/v1/ops/drain"
	if limit > 0 {
		path += "?" + url.Values{"limit": {fmt.Sprint(limit)}}.Encode()
	}
	var out struct {
		Run *faq.QueueRun `json:"run"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Run, nil
}

func (c *Client) Purge(ctx context.Context) (int, error) {
	var out struct {
		Purged int `json:"purged"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ops/purge", nil, &out); err != nil {
		return 0, err
	}
	return out.Purged, nil
}

// Health returns the raw health document so new fields print without a client change.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.do(ctx, http.MethodGet, "/api/v1/ops/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ClearLog(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/ops/log", nil, nil)
}

func (c *Client) Reindex(ctx context.Context) (map[string]any, error) {
	var out struct {
		Reindex map[string]any `json:"reindex"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ops/reindex", nil, &out); err != nil {
		return nil, err
	}
	return out.Reindex, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
