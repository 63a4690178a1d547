package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"siteforge/api/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GeneratorConfig{
		Enabled: true,
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestClientDisabled(t *testing.T) {
	c := NewClient(config.GeneratorConfig{Enabled: false})
	_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
	if err == nil || KindOf(err) != KindConfiguration {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestClientMissingCredentials(t *testing.T) {
	c := NewClient(config.GeneratorConfig{Enabled: true, BaseURL: "http://localhost:1"})
	_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
	if err == nil || KindOf(err) != KindConfiguration {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestClientSuccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":{"version":2,"sections":[]}}`))
	})

	content, err := c.Generate(context.Background(), SiteSpec{Name: "Crumb & Co"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(content) != `{"version":2,"sections":[]}` {
		t.Fatalf("content = %s", content)
	}
}

func TestClientAuthFailureIsConfiguration(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests} {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
		if err == nil || KindOf(err) != KindConfiguration {
			t.Fatalf("status %d: want configuration error, got %v", status, err)
		}
	}
}

func TestClientServerErrorIsTransient(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
	if err == nil || KindOf(err) != KindTransient {
		t.Fatalf("want transient error, got %v", err)
	}
}

func TestClientMalformedResponseIsTransient(t *testing.T) {
	cases := map[string]string{
		"not json":      `<<nope>>`,
		"empty content": `{"content":null}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
			if err == nil || KindOf(err) != KindTransient {
				t.Fatalf("want transient error, got %v", err)
			}
		})
	}
}

func TestClientNetworkFailureIsTransient(t *testing.T) {
	c := NewClient(config.GeneratorConfig{
		Enabled: true,
		BaseURL: "http://127.0.0.1:1",
		APIKey:  "test-key",
		Timeout: time.Second,
	})
	_, err := c.Generate(context.Background(), SiteSpec{Name: "x"})
	if err == nil || KindOf(err) != KindTransient {
		t.Fatalf("want transient error, got %v", err)
	}
}
