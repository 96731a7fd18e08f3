package util

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether result pages may be fetched under each
// site's robots.txt. Policies are cached per origin for the lifetime of
// the process; an unreachable or unparsable robots.txt fails open so a
// broken policy file cannot silence evidence gathering.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	agentToken string

	mu       sync.RWMutex
	policies map[string]*robotstxt.RobotsData
}

// NewRobotsChecker creates a checker. Rules are matched against the
// product token of userAgent (the part before the first slash), which
// is what robots.txt groups name.
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		agentToken: agentToken(userAgent),
		policies:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched. Unparsable URLs are
// never fetched; origins without a usable policy always are.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}

	policy := r.policy(ctx, parsed.Scheme+"://"+parsed.Host)
	if policy == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return policy.TestAgent(path, r.agentToken)
}

// CrawlDelay returns the delay the origin's robots.txt declares for
// this agent, or zero when no policy or no delay exists.
func (r *RobotsChecker) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return 0
	}

	policy := r.policy(ctx, parsed.Scheme+"://"+parsed.Host)
	if policy == nil {
		return 0
	}
	if group := policy.FindGroup(r.agentToken); group != nil {
		return group.CrawlDelay
	}
	return 0
}

// policy returns the robots.txt data for an origin, fetching it on
// first use. Fetch failures cache as no-policy.
func (r *RobotsChecker) policy(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.RLock()
	policy, ok := r.policies[origin]
	r.mu.RUnlock()
	if ok {
		return policy
	}

	policy = r.fetchPolicy(ctx, origin)

	r.mu.Lock()
	r.policies[origin] = policy
	r.mu.Unlock()

	return policy
}

func (r *RobotsChecker) fetchPolicy(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse folds in status semantics: 404 allows everything,
	// 401/403 disallow everything, 5xx errors out (treated as no policy)
	policy, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return policy
}

// agentToken extracts the product token from a User-Agent string
func agentToken(userAgent string) string {
	fields := strings.Fields(userAgent)
	if len(fields) == 0 {
		return userAgent
	}
	return strings.SplitN(fields[0], "/", 2)[0]
}
