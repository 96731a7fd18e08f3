package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/aletheia/internal/cache"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/util"
	"github.com/ppiankov/aletheia/internal/worker"
)

// pageContentLimit caps extracted page text in characters
const pageContentLimit = 5000

// maxCrawlDelay caps how long a site's declared crawl delay is honored
const maxCrawlDelay = 5 * time.Second

// Fetcher retrieves readable text from result pages. Fetches respect
// robots.txt including a capped crawl delay, per-domain rate limits and
// the configured body cap; page text is cached under the URL.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	store      cache.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewFetcher creates a page fetcher from configuration
func NewFetcher(cfg model.Config, store cache.Cache, limiter *worker.Limiter, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.NoopCache{}
	}
	if limiter == nil {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	timeout := cfg.HTTP.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(cfg.HTTP),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  maxBytes,
		robots:    util.NewRobotsChecker(cfg.HTTP.UserAgent, timeout),
		limiter:   limiter,
		store:     store,
		cacheTTL:  cfg.Cache.TTL,
		logger:    logger,
	}
}

// FetchPageContent retrieves a page and reduces it to plain text capped
// at pageContentLimit characters
func (f *Fetcher) FetchPageContent(ctx context.Context, rawURL string) (string, error) {
	cacheKey := cache.Key("page", rawURL)
	if data, found := f.store.Get(cacheKey); found {
		return string(data), nil
	}

	if !f.robots.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
	}

	delay := f.robots.CrawlDelay(ctx, rawURL)
	if delay > maxCrawlDelay {
		delay = maxCrawlDelay
	}
	if err := f.limiter.WaitWithDelay(ctx, rawURL, delay); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := PageText(string(body))

	if err := f.store.Set(cacheKey, []byte(text), f.cacheTTL); err != nil {
		f.logger.Debug("cache page content", zap.Error(err))
	}

	return text, nil
}

// PageText reduces HTML markup to whitespace-collapsed visible text
// capped at pageContentLimit characters. Script, style, noscript and
// iframe content is dropped.
func PageText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript, iframe content
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(buf.String()), " ")

	runes := []rune(text)
	if len(runes) > pageContentLimit {
		text = string(runes[:pageContentLimit])
	}

	return text
}
