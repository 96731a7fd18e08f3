package model

import (
	"strings"
	"time"
	"unicode"
)

// Report is the complete verification output for one input text
type Report struct {
	Subject     string             `json:"subject"`            // Input text, shortened for display
	Category    string             `json:"category,omitempty"` // Topical tag, e.g. "health"
	Mode        string             `json:"mode"`               // "single" or "debate"
	AnalyzedAt  time.Time          `json:"analyzed_at"`
	Claims      []ClaimResult      `json:"claims"`
	Credibility CredibilitySummary `json:"credibility"` // Roll-up across all claims' sources
	ElapsedMS   int64              `json:"elapsed_ms"`
}

// ClaimResult pairs an extracted claim with its verification outcome
type ClaimResult struct {
	ID                int              `json:"id"`
	Text              string           `json:"text"`
	Method            ExtractionMethod `json:"method"`
	Verdict           Verdict          `json:"verdict"`
	Confidence        float64          `json:"confidence"`
	Explanation       string           `json:"explanation"`
	Citations         []string         `json:"citations,omitempty"`
	EvidenceCount     int              `json:"evidence_count"`
	SourceCredibility float64          `json:"source_credibility"` // Mean trust score of this claim's sources
	Evidence          []Evidence       `json:"evidence,omitempty"` // Top supporting passages, at most 3
}

// VerdictCounts tallies claim verdicts for summary output
func (r *Report) VerdictCounts() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, c := range r.Claims {
		counts[c.Verdict]++
	}
	return counts
}

// SubjectFromText shortens input text to a display subject: at most 100
// runes, cut at a word boundary, with a trailing ellipsis when truncated.
func SubjectFromText(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	cut := 100
	for cut > 60 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	return strings.TrimSpace(string(runes[:cut])) + "..."
}
