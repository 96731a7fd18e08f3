package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/aletheia/internal/cache"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/worker"
)

const (
	defaultEndpoint   = "https://html.duckduckgo.com/html/"
	minQueryLength    = 3
	defaultMaxResults = 5
	contentResults    = 3
)

// Client searches a DuckDuckGo-style HTML results endpoint. Results are
// scraped from the returned markup, so any endpoint serving the classic
// HTML form works. Parsed result pages are cached under the query.
type Client struct {
	endpoint   string
	region     string
	maxResults int
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	store      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	fetcher    *Fetcher
	logger     *zap.Logger
}

// NewClient creates a search client from configuration. A nil cache
// disables caching and a nil limiter gets one built from the rate
// limiting configuration.
func NewClient(cfg model.Config, store cache.Cache, limiter *worker.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.NoopCache{}
	}
	if limiter == nil {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	endpoint := cfg.Search.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	maxResults := cfg.Search.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	return &Client{
		endpoint:   endpoint,
		region:     cfg.Search.Region,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: newTransport(cfg.HTTP),
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  maxBytes,
		store:     store,
		cacheTTL:  cfg.Cache.TTL,
		limiter:   limiter,
		fetcher:   NewFetcher(cfg, store, limiter, logger),
		logger:    logger,
	}
}

// Search runs a query against the HTML endpoint and returns up to
// maxResults hits. Queries shorter than three characters after trimming
// return no results and no error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	cacheKey := cache.Key("search", c.region+":"+query)
	if data, found := c.store.Get(cacheKey); found {
		var results []Result
		if err := json.Unmarshal(data, &results); err == nil {
			return limitResults(results, maxResults), nil
		}
	}

	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	form := url.Values{}
	form.Set("q", query)
	form.Set("b", "")
	if c.region != "" {
		form.Set("kl", c.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	results, err := parseResults(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	if data, err := json.Marshal(results); err == nil {
		if err := c.store.Set(cacheKey, data, c.cacheTTL); err != nil {
			c.logger.Debug("cache search results", zap.Error(err))
		}
	}

	c.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("results", len(results)))

	return limitResults(results, maxResults), nil
}

// SearchWithContent runs a search and attaches fetched page text to the
// top results. Pages that cannot be fetched keep an empty Content.
func (c *Client) SearchWithContent(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 || maxResults > contentResults {
		maxResults = contentResults
	}

	results, err := c.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	for i := range results {
		content, err := c.fetcher.FetchPageContent(ctx, results[i].URL)
		if err != nil {
			c.logger.Debug("fetch page content",
				zap.String("url", results[i].URL),
				zap.Error(err))
			continue
		}
		results[i].Content = content
	}

	return results, nil
}

// parseResults extracts search hits from the endpoint's HTML markup.
// Result anchors carry the result__a class and snippets the
// result__snippet class; snippets attach to the preceding anchor.
func parseResults(markup string) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var results []Result
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				href := attrValue(n, "href")
				target := resolveRedirect(href)
				title := nodeText(n)
				if target != "" && title != "" && !isAdLink(href) && !seen[target] {
					seen[target] = true
					results = append(results, Result{
						Title:  title,
						URL:    target,
						Source: sourceDomain(target),
					})
				}
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = nodeText(n)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return results, nil
}

// resolveRedirect unwraps the endpoint's redirect links. Result anchors
// point at /l/?uddg=<escaped target>; everything else must already be an
// absolute http(s) URL.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if parsed.Path == "/l" || strings.HasPrefix(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}

	return href
}

// isAdLink reports whether a raw result href is a sponsored redirect
func isAdLink(href string) bool {
	return strings.Contains(href, "duckduckgo.com/y.js")
}

// hasClass reports whether a node carries the given class token
func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, name := range strings.Fields(attr.Val) {
			if name == class {
				return true
			}
		}
	}
	return false
}

// attrValue returns the value of the named attribute, or ""
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText collects the text content under a node with whitespace collapsed
func nodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(buf.String()), " ")
}
