package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiterPerHostBudgets(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if !limiter.Allow("https://slow.example.org/a") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("https://slow.example.org/b") {
		t.Fatal("second request should exhaust the host budget")
	}
	if !limiter.Allow("https://other.example.org/") {
		t.Fatal("a different host should have its own budget")
	}
}

func TestLimiterFoldsWWWPrefix(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if !limiter.Allow("https://www.example.org/a") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("https://example.org/b") {
		t.Fatal("www and bare host should share one budget")
	}
}

func TestLimiterDefaultBurst(t *testing.T) {
	limiter := NewLimiter(0.1, 0)

	for i := 0; i < 5; i++ {
		if !limiter.Allow("https://example.org/") {
			t.Fatalf("request %d should fit the default burst of 5", i+1)
		}
	}
	if limiter.Allow("https://example.org/") {
		t.Fatal("sixth request should exceed the default burst")
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)

	if err := limiter.Wait(context.Background(), "https://example.org/"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(short, "https://example.org/"); err == nil {
		t.Fatal("exhausted budget should fail once the context ends")
	}
}

func TestLimiterWaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 10)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "https://example.org/", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Errorf("expected at least the 50ms delay, waited %v", elapsed)
	}
}

func TestLimiterWaitWithDelayCancelled(t *testing.T) {
	limiter := NewLimiter(100, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := limiter.WaitWithDelay(ctx, "https://example.org/", time.Second); err == nil {
		t.Fatal("cancelled context should abort the delay")
	}
}

func TestLimiterRejectsKeylessURLs(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if err := limiter.Wait(context.Background(), "not-a-url"); err == nil {
		t.Fatal("URL without a host should be rejected")
	}
	if limiter.Allow("not-a-url") {
		t.Fatal("Allow should refuse URLs without a host")
	}
}
