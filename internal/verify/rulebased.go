package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

// Evidence passages are bucketed by the language they use about the claim.
// Supporting wins when a passage carries both kinds of language.
var (
	supportingWords    = []string{"confirm", "verify", "true", "accurate", "correct", "valid"}
	contradictingWords = []string{"false", "debunk", "disprove", "incorrect", "invalid", "misleading"}
)

// Claim-text indicator phrases, consulted only when evidence analysis
// is inconclusive.
var (
	falseClaimIndicators      = []string{"never happened", "fake", "hoax", "conspiracy", "false", "not true", "debunked"}
	trueClaimIndicators       = []string{"confirmed", "verified", "proven", "fact", "true", "accurate", "established"}
	misleadingClaimIndicators = []string{"partially", "somewhat", "misleading", "out of context", "exaggerated"}
)

const (
	maxCitations        = 5
	maxSnippets         = 2
	snippetTruncateRune = 150
)

// RuleBased verifies a claim deterministically from the gathered evidence.
// It never fails: with no evidence at all it reports unverified at 0.2, and
// every other path yields a bounded confidence with an explanation of the
// reasoning steps taken.
func RuleBased(claim string, evidence []model.Evidence) model.VerificationResult {
	claimLower := strings.ToLower(claim)

	evidenceCount := len(evidence)
	webSources := 0
	kbSources := 0
	for _, ev := range evidence {
		switch ev.Type {
		case model.EvidenceTypeWeb:
			webSources++
		case model.EvidenceTypeKB:
			kbSources++
		}
	}

	// Relevance is keyword overlap between the claim and a passage.
	// Relevant passages without supporting or contradicting language
	// count as half a supporting source.
	keywords := claimKeywords(claimLower)
	var supporting, contradicting float64
	var snippets []string
	for _, ev := range evidence {
		passage := ev.Passage()
		passageLower := strings.ToLower(passage)
		if !containsAny(passageLower, keywords) {
			continue
		}
		switch {
		case containsAny(passageLower, supportingWords):
			supporting++
		case containsAny(passageLower, contradictingWords):
			contradicting++
		default:
			supporting += 0.5
		}
		if len(snippets) < maxSnippets {
			snippets = append(snippets, truncateRunes(passage, snippetTruncateRune))
		}
	}

	if evidenceCount == 0 {
		return model.VerificationResult{
			Verdict:     model.VerdictUnverified,
			Confidence:  0.2,
			Explanation: "No evidence sources found to verify this claim. Web search and Knowledge Base retrieval returned no results.",
			Citations:   []string{},
		}
	}

	parts := []string{fmt.Sprintf("Analyzed %d evidence source(s)", evidenceCount)}
	if webSources > 0 {
		parts = append(parts, fmt.Sprintf("%d web source(s)", webSources))
	}
	if kbSources > 0 {
		parts = append(parts, fmt.Sprintf("%d knowledge base document(s)", kbSources))
	}

	falseCount := countContained(claimLower, falseClaimIndicators)
	trueCount := countContained(claimLower, trueClaimIndicators)
	misleadingCount := countContained(claimLower, misleadingClaimIndicators)

	verdict := model.VerdictUnverified
	var confidence float64
	switch {
	case supporting > contradicting && supporting > 0:
		verdict = model.VerdictTrue
		confidence = math.Min(0.75, 0.5+supporting*0.1+float64(evidenceCount)*0.05)
		parts = append(parts, fmt.Sprintf("Evidence supports this claim (%d supporting source(s))", int(supporting)))
	case contradicting > supporting && contradicting > 0:
		verdict = model.VerdictFalse
		confidence = math.Min(0.75, 0.5+contradicting*0.1+float64(evidenceCount)*0.05)
		parts = append(parts, fmt.Sprintf("Evidence contradicts this claim (%d contradicting source(s))", int(contradicting)))
	case falseCount > trueCount && falseCount > 0:
		verdict = model.VerdictFalse
		confidence = math.Min(0.7, 0.4+float64(evidenceCount)*0.1)
		parts = append(parts, "Keyword analysis suggests this claim is false")
	case trueCount > falseCount && trueCount > 0:
		verdict = model.VerdictTrue
		confidence = math.Min(0.7, 0.4+float64(evidenceCount)*0.1)
		parts = append(parts, "Keyword analysis suggests this claim is true")
	case misleadingCount > 0:
		verdict = model.VerdictMisleading
		confidence = math.Min(0.65, 0.35+float64(evidenceCount)*0.1)
		parts = append(parts, "This claim may be misleading or require additional context")
	default:
		confidence = math.Min(0.6, 0.3+float64(evidenceCount)*0.05)
		parts = append(parts, "Insufficient evidence to determine veracity")
	}

	if len(snippets) > 0 {
		parts = append(parts, "\n\nRelevant evidence:")
		for i, snippet := range snippets {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, snippet))
		}
	}

	return model.VerificationResult{
		Verdict:     verdict,
		Confidence:  confidence,
		Explanation: strings.Join(parts, ". "),
		Citations:   extractCitations(evidence),
	}
}

// claimKeywords returns the claim tokens long enough to carry meaning.
func claimKeywords(claimLower string) []string {
	var keywords []string
	for _, word := range strings.Fields(claimLower) {
		if len(word) > 4 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func countContained(text string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			count++
		}
	}
	return count
}

// extractCitations pulls the URL (or title when no URL) from each of the
// first five evidence items.
func extractCitations(evidence []model.Evidence) []string {
	limit := len(evidence)
	if limit > maxCitations {
		limit = maxCitations
	}
	citations := []string{}
	for _, ev := range evidence[:limit] {
		if ev.URL != "" {
			citations = append(citations, ev.URL)
		} else if ev.Title != "" {
			citations = append(citations, ev.Title)
		}
	}
	return citations
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
