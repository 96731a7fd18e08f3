package search

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/util"
)

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`            // Result host without the www prefix
	Content string `json:"content,omitempty"` // Page text, attached by SearchWithContent
}

// Provider is implemented by web search clients.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// sourceDomain derives the source label for a result URL
func sourceDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// newTransport builds the shared HTTP transport for search and page fetching
func newTransport(cfg model.HTTPConfig) *http.Transport {
	transport := &http.Transport{
		Proxy: util.ProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}

// limitResults truncates a result list to at most max entries
func limitResults(results []Result, max int) []Result {
	if max > 0 && len(results) > max {
		return results[:max]
	}
	return results
}
