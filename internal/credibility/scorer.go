package credibility

import (
	"net/url"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

// Scorer classifies source domains and computes trust scores.
// All classification is static table lookup; no network calls are made,
// so Analyze never fails and is safe on every evidence URL.
type Scorer struct {
	factCheckers     map[string]bool
	unreliable       map[string]bool
	academicSuffixes []string
}

// NewScorer creates a scorer with the standard domain tables
func NewScorer() *Scorer {
	return &Scorer{
		factCheckers: map[string]bool{
			"factcheck.org":     true,
			"snopes.com":        true,
			"politifact.com":    true,
			"fullfact.org":      true,
			"checkyourfact.com": true,
			"leadstories.com":   true,
		},
		unreliable: map[string]bool{
			"infowars.com":    true,
			"naturalnews.com": true,
		},
		academicSuffixes: []string{".edu", ".ac.uk", ".edu.au"},
	}
}

// Analyze classifies a single source URL. A URL that cannot be parsed
// yields a zero-trust report with Err set rather than an error return.
func (s *Scorer) Analyze(rawURL string) model.CredibilityReport {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.CredibilityReport{
			Domain:     "unknown",
			URL:        rawURL,
			TrustScore: 0.0,
			DomainAge:  model.AgeUnknown,
			Err:        err.Error(),
		}
	}

	domain := strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))
	if idx := strings.Index(domain, ":"); idx > 0 {
		domain = domain[:idx]
	}

	report := model.CredibilityReport{
		Domain:        domain,
		URL:           rawURL,
		DomainAge:     s.estimateDomainAge(domain),
		IsFactChecker: s.factCheckers[domain],
		IsUnreliable:  s.unreliable[domain],
		IsAcademic:    s.isAcademic(domain),
		TLD:           tld(domain),
	}
	report.TrustScore = s.trustScore(report)

	return report
}

// AnalyzeAll scores every URL and aggregates the results
func (s *Scorer) AnalyzeAll(urls []string) model.CredibilitySummary {
	if len(urls) == 0 {
		return model.CredibilitySummary{}
	}

	summary := model.CredibilitySummary{
		SourceCount: len(urls),
		Sources:     make([]model.CredibilityReport, 0, len(urls)),
	}

	total := 0.0
	for _, u := range urls {
		report := s.Analyze(u)
		summary.Sources = append(summary.Sources, report)
		total += report.TrustScore
		if report.IsFactChecker {
			summary.FactCheckerSources++
		}
		if report.IsAcademic {
			summary.AcademicSources++
		}
		if report.IsUnreliable {
			summary.UnreliableSources++
		}
	}
	summary.AverageTrustScore = total / float64(len(urls))

	return summary
}

// trustScore computes the additive score: neutral 0.5 baseline, +0.3 for
// fact-checkers, +0.2 for academic domains, -0.4 for known unreliable
// domains, +0.1 for established TLDs, clamped to [0,1].
func (s *Scorer) trustScore(r model.CredibilityReport) float64 {
	score := 0.5

	if r.IsFactChecker {
		score += 0.3
	}
	if r.IsAcademic {
		score += 0.2
	}
	if r.IsUnreliable {
		score -= 0.4
	}
	if r.DomainAge == model.AgeEstablished {
		score += 0.1
	}

	return model.Clamp01(score)
}

// estimateDomainAge infers a coarse age signal from the TLD. A WHOIS
// lookup would do better; the TLD heuristic keeps this offline.
func (s *Scorer) estimateDomainAge(domain string) model.DomainAge {
	switch {
	case strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".gov"):
		return model.AgeEstablished
	case strings.HasSuffix(domain, ".org"):
		return model.AgeLikelyEstablished
	default:
		return model.AgeUnknown
	}
}

func (s *Scorer) isAcademic(domain string) bool {
	for _, suffix := range s.academicSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

func tld(domain string) string {
	if idx := strings.LastIndex(domain, "."); idx >= 0 {
		return domain[idx+1:]
	}
	return ""
}
