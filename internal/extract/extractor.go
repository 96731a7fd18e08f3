package extract

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/model"
)

const (
	// Inputs shorter than this (after trimming) carry no extractable claims.
	minInputLength = 10

	// Containment deduplication only applies to claims longer than this;
	// short claims are too likely to be substrings of each other by accident.
	containmentDedupLength = 20
)

// Strategy produces candidate claims from raw text. Strategies fill in
// Text, Confidence and Method; the Extractor owns ids.
type Strategy interface {
	Method() model.ExtractionMethod
	Extract(ctx context.Context, text string) ([]model.Claim, error)
}

// Extractor runs several extraction strategies and fuses their output into
// one deduplicated, confidence-ranked claim list.
type Extractor struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewExtractor creates an extractor running the given strategies in order.
// Order matters: when two strategies emit near-duplicate claims, the one
// from the earlier strategy survives.
func NewExtractor(logger *zap.Logger, strategies ...Strategy) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		strategies: strategies,
		logger:     logger,
	}
}

// Extract runs every strategy over the text and fuses the results. A
// failing strategy contributes nothing; it never aborts extraction. The
// fused claims are sorted by descending confidence (stable, so strategy
// order breaks ties) and renumbered 1..N.
func (e *Extractor) Extract(ctx context.Context, text string) []model.Claim {
	if len(strings.TrimSpace(text)) < minInputLength {
		return []model.Claim{}
	}

	fused := []model.Claim{}
	seenExact := make(map[string]bool)
	var seenTexts []string

	for _, strategy := range e.strategies {
		claims, err := strategy.Extract(ctx, text)
		if err != nil {
			e.logger.Warn("extraction strategy failed",
				zap.String("strategy", string(strategy.Method())),
				zap.Error(err))
			continue
		}

		for _, claim := range claims {
			key := strings.ToLower(strings.TrimSpace(claim.Text))
			if key == "" || seenExact[key] {
				continue
			}
			if isNearDuplicate(key, seenTexts) {
				continue
			}
			seenExact[key] = true
			seenTexts = append(seenTexts, key)
			fused = append(fused, claim)
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Confidence > fused[j].Confidence
	})
	for i := range fused {
		fused[i].ID = i + 1
	}

	return fused
}

// isNearDuplicate reports whether key is contained in (or contains) any
// already-seen claim text, with both sides longer than the containment
// threshold.
func isNearDuplicate(key string, seen []string) bool {
	if len(key) <= containmentDedupLength {
		return false
	}
	for _, existing := range seen {
		if len(existing) <= containmentDedupLength {
			continue
		}
		if strings.Contains(existing, key) || strings.Contains(key, existing) {
			return true
		}
	}
	return false
}

// splitSentences splits text into sentences, keeping terminal punctuation.
// A terminator only ends a sentence when followed by whitespace, which
// keeps decimals and most abbreviations intact.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if sentence := strings.TrimSpace(current.String()); sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

func containsAny(lower string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
