package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

const minStructuralLength = 15

// Hedging patterns signal reported speech or opinion rather than a claim
// the text itself is making.
var hedgingPatterns = []string{
	"according to",
	"as reported by",
	"sources say",
	"it is said",
	"some believe",
	"many think",
	"people say",
}

// Indicator phrases that mark a sentence as asserting a fact. Matching is
// substring-based over the lowered sentence.
var claimIndicators = []string{
	"is", "are", "was", "were", "will be", "has been", "have been",
	"causes", "caused", "leads to", "results in", "means",
	"contains", "includes", "consists of", "comprises",
}

// predicateTokens approximate a declarative root verb without a parser:
// linking verbs, auxiliaries, modals and the common claim verbs.
var predicateTokens = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "am": true,
	"be": true, "been": true, "being": true,
	"has": true, "have": true, "had": true,
	"will": true, "would": true, "shall": true, "should": true,
	"can": true, "could": true, "may": true, "might": true, "must": true,
	"does": true, "do": true, "did": true,
	"causes": true, "caused": true, "leads": true, "led": true,
	"means": true, "meant": true, "contains": true, "contained": true,
	"includes": true, "included": true, "consists": true, "comprises": true,
	"results": true, "becomes": true, "became": true, "remains": true,
	"equals": true, "makes": true, "made": true,
}

// StructuralStrategy keeps declarative sentences that look like they state
// a fact: long enough, not a question, not hedged, and carrying a subject
// before a recognizable predicate.
type StructuralStrategy struct{}

// NewStructuralStrategy creates the structural extraction strategy.
func NewStructuralStrategy() *StructuralStrategy {
	return &StructuralStrategy{}
}

// Method identifies the strategy.
func (s *StructuralStrategy) Method() model.ExtractionMethod {
	return model.MethodStructural
}

// Extract emits one claim per qualifying sentence at confidence 0.7,
// raised to 0.8 when the sentence carries a factual-claim indicator.
func (s *StructuralStrategy) Extract(_ context.Context, text string) ([]model.Claim, error) {
	var claims []model.Claim

	for _, sentence := range splitSentences(text) {
		if len(sentence) < minStructuralLength {
			continue
		}
		if strings.HasSuffix(sentence, "?") {
			continue
		}

		lower := strings.ToLower(sentence)
		if containsAny(lower, hedgingPatterns) {
			continue
		}
		if !hasDeclarativeCore(lower) {
			continue
		}

		confidence := 0.7
		if containsAny(lower, claimIndicators) {
			confidence = 0.8
		}

		claims = append(claims, model.Claim{
			Text:       sentence,
			Confidence: confidence,
			Method:     model.MethodStructural,
		})
	}

	return claims, nil
}

// hasDeclarativeCore reports whether the sentence has a predicate token
// with at least one word before it to act as the subject. Question-form
// sentences tend to start with the verb and fail the subject check.
func hasDeclarativeCore(lower string) bool {
	words := strings.Fields(lower)
	for i, word := range words {
		token := strings.Trim(word, ".,;:!?()[]{}\"'")
		if predicateTokens[token] || isPastTenseVerb(token) {
			return i > 0
		}
	}
	return false
}

// isPastTenseVerb is a rough regular past-tense check. The length floor
// keeps short adjectives like "red" out.
func isPastTenseVerb(token string) bool {
	return len(token) >= 5 && strings.HasSuffix(token, "ed")
}
