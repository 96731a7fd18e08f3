package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/cache"
	"github.com/ppiankov/aletheia/internal/model"
)

func newTestFetcher(t *testing.T, store cache.Cache) *Fetcher {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.RateLimiting.RequestsPerSecond = 1000
	cfg.RateLimiting.BurstSize = 10

	return NewFetcher(cfg, store, nil, zap.NewNop())
}

func TestFetcher_FetchPageContent_StripsMarkup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Tides</title><script>var x = 1;</script><style>p { color: red; }</style></head><body><h1>Ocean tides</h1><p>Tides   are driven
by the moon.</p><noscript>Enable JS</noscript><iframe>frame text</iframe></body></html>`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	content, err := fetcher.FetchPageContent(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("FetchPageContent failed: %v", err)
	}

	want := "Tides Ocean tides Tides are driven by the moon."
	if content != want {
		t.Errorf("Expected %q, got %q", want, content)
	}
}

func TestFetcher_FetchPageContent_CapsLength(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body><p>" + long + "</p></body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	content, err := fetcher.FetchPageContent(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("FetchPageContent failed: %v", err)
	}

	if got := len([]rune(content)); got != pageContentLimit {
		t.Errorf("Expected content capped at %d chars, got %d", pageContentLimit, got)
	}
}

func TestFetcher_FetchPageContent_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchPageContent(context.Background(), server.URL+"/article")
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}
}

func TestFetcher_FetchPageContent_RobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		_, _ = w.Write([]byte("<html><body>secret</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, nil)

	_, err := fetcher.FetchPageContent(context.Background(), server.URL+"/private/report.html")
	if err == nil {
		t.Fatal("Expected error for robots-disallowed URL")
	}
	if !strings.Contains(err.Error(), "robots") {
		t.Errorf("Expected robots error, got %v", err)
	}
}

func TestFetcher_FetchPageContent_UsesCache(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		pages++
		_, _ = w.Write([]byte("<html><body><p>Cached article body.</p></body></html>"))
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	fetcher := newTestFetcher(t, store)

	first, err := fetcher.FetchPageContent(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}

	second, err := fetcher.FetchPageContent(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if pages != 1 {
		t.Errorf("Expected 1 upstream fetch, got %d", pages)
	}
	if first != second {
		t.Errorf("Expected cached content to match, got %q vs %q", first, second)
	}
	if first != "Cached article body." {
		t.Errorf("Expected 'Cached article body.', got %q", first)
	}
}

func TestPageText_CollapsesWhitespace(t *testing.T) {
	got := PageText("<html><body><p>first</p>\n\n<p>second   block</p></body></html>")
	want := "first second block"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
