package credibility

import (
	"math"
	"testing"

	"github.com/ppiankov/aletheia/internal/model"
)

func TestAnalyzeTrustScores(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		url      string
		expected float64
	}{
		{
			name:     "fact checker",
			url:      "https://www.snopes.com/fact-check/earth-round",
			expected: 0.8,
		},
		{
			name:     "fact checker on org TLD",
			url:      "https://fullfact.org/health/",
			expected: 0.8,
		},
		{
			name:     "academic edu gets academic and established boosts",
			url:      "https://web.mit.edu/research",
			expected: 0.8,
		},
		{
			name:     "uk academic",
			url:      "https://www.ox.ac.uk/news",
			expected: 0.7,
		},
		{
			name:     "government domain",
			url:      "https://www.cdc.gov/flu",
			expected: 0.6,
		},
		{
			name:     "unreliable domain penalized",
			url:      "https://www.infowars.com/article",
			expected: 0.1,
		},
		{
			name:     "unknown commercial domain stays neutral",
			url:      "https://example.com/blog",
			expected: 0.5,
		},
		{
			name:     "plain org without other signals",
			url:      "https://wikipedia.org/wiki/Laksa",
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := scorer.Analyze(tt.url)
			if math.Abs(report.TrustScore-tt.expected) > 1e-9 {
				t.Errorf("Expected trust score %.2f, got %.2f", tt.expected, report.TrustScore)
			}
			if report.TrustScore < 0 || report.TrustScore > 1 {
				t.Errorf("Trust score %.2f out of [0,1]", report.TrustScore)
			}
		})
	}
}

func TestAnalyzeDomainNormalization(t *testing.T) {
	scorer := NewScorer()

	report := scorer.Analyze("https://WWW.Snopes.COM/fact-check")
	if report.Domain != "snopes.com" {
		t.Errorf("Expected domain snopes.com, got %s", report.Domain)
	}
	if !report.IsFactChecker {
		t.Error("Expected snopes.com to be classified as fact checker")
	}

	report = scorer.Analyze("https://example.com:8443/page")
	if report.Domain != "example.com" {
		t.Errorf("Expected port stripped from domain, got %s", report.Domain)
	}

	report = scorer.Analyze("https://news.example.org/story")
	if report.DomainAge != model.AgeLikelyEstablished {
		t.Errorf("Expected likely_established for .org, got %s", report.DomainAge)
	}
	if report.TLD != "org" {
		t.Errorf("Expected TLD org, got %s", report.TLD)
	}
}

func TestAnalyzeUnparseableURL(t *testing.T) {
	scorer := NewScorer()

	report := scorer.Analyze("://not-a-url")
	if report.TrustScore != 0.0 {
		t.Errorf("Expected zero trust for unparseable URL, got %.2f", report.TrustScore)
	}
	if report.Err == "" {
		t.Error("Expected error message to be recorded")
	}
	if report.Domain != "unknown" {
		t.Errorf("Expected domain unknown, got %s", report.Domain)
	}
}

func TestAnalyzeAll(t *testing.T) {
	scorer := NewScorer()

	summary := scorer.AnalyzeAll([]string{
		"https://www.snopes.com/check",
		"https://www.infowars.com/story",
		"https://example.com",
	})

	if summary.SourceCount != 3 {
		t.Errorf("Expected 3 sources, got %d", summary.SourceCount)
	}
	if summary.FactCheckerSources != 1 {
		t.Errorf("Expected 1 fact checker source, got %d", summary.FactCheckerSources)
	}
	if summary.UnreliableSources != 1 {
		t.Errorf("Expected 1 unreliable source, got %d", summary.UnreliableSources)
	}

	// (0.8 + 0.1 + 0.5) / 3
	expected := (0.8 + 0.1 + 0.5) / 3.0
	if math.Abs(summary.AverageTrustScore-expected) > 1e-9 {
		t.Errorf("Expected average trust %.4f, got %.4f", expected, summary.AverageTrustScore)
	}
}

func TestAnalyzeAllEmpty(t *testing.T) {
	scorer := NewScorer()

	summary := scorer.AnalyzeAll(nil)
	if summary.SourceCount != 0 {
		t.Errorf("Expected 0 sources, got %d", summary.SourceCount)
	}
	if summary.AverageTrustScore != 0.0 {
		t.Errorf("Expected zero average trust, got %.2f", summary.AverageTrustScore)
	}
}
