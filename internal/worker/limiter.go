package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces outbound requests per host so evidence gathering does
// not hammer any single site. Buckets are created lazily; www. prefixes
// fold into the bare host so both names share one budget.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host with
// the given burst. A non-positive burst defaults to 5.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(requestsPerSecond),
		burst:   burst,
	}
}

// Wait blocks until the host behind rawURL has request budget or ctx
// ends.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostKey(rawURL)
	if err != nil {
		return err
	}
	return l.bucket(host).Wait(ctx)
}

// WaitWithDelay waits for request budget, then sleeps delay. Used to
// honor robots.txt crawl delays on top of the default pacing.
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, delay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// Allow reports whether the host has budget right now, consuming one
// token when it does.
func (l *Limiter) Allow(rawURL string) bool {
	host, err := hostKey(rawURL)
	if err != nil {
		return false
	}
	return l.bucket(host).Allow()
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.RLock()
	bucket, ok := l.buckets[host]
	l.mu.RUnlock()
	if ok {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if bucket, ok := l.buckets[host]; ok {
		return bucket
	}
	bucket = rate.NewLimiter(l.rps, l.burst)
	l.buckets[host] = bucket
	return bucket
}

// hostKey reduces a URL to the host its budget is tracked under.
func hostKey(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("rate limit key: %w", err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("rate limit key: no host in %q", rawURL)
	}
	host := strings.ToLower(parsed.Host)
	return strings.TrimPrefix(host, "www."), nil
}
