package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"siteforge/api/internal/config"
)

// Client talks to the hosted generation provider over HTTP. Every call is
// bounded by the configured timeout; the provider is never waited on
// indefinitely.
type Client struct {
	cfg  config.GeneratorConfig
	http *http.Client
}

func NewClient(cfg config.GeneratorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Generate(ctx context.Context, spec SiteSpec) (json.RawMessage, error) {
	if !c.cfg.Enabled {
		return nil, configurationError("generator disabled")
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" || strings.TrimSpace(c.cfg.BaseURL) == "" {
		return nil, configurationError("generator credentials missing")
	}

	body, err := json.Marshal(spec)
	if err != nil {
		return nil, transientError("encode spec: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/v1/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, transientError("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transientError("call provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, configurationError("provider rejected request: %s", resp.Status)
	default:
		return nil, transientError("provider status: %s", resp.Status)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, transientError("read response: %w", err)
	}

	var doc struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, transientError("decode response: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, transientError("provider returned empty content")
	}
	return doc.Content, nil
}

var _ ContentGenerator = (*Client)(nil)
