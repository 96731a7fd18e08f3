package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

const minFallbackLength = 20

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// Auxiliary and modal markers suggesting a fragment asserts something.
// Matching is substring-based over the lowered fragment.
var auxiliaryMarkers = []string{"is", "are", "was", "were", "will", "can", "has", "have"}

// FallbackStrategy is the crude safety net: it splits on sentence
// terminators and keeps any fragment long enough to carry an auxiliary or
// modal marker. It over-extracts; fusion demotes its output behind the
// other strategies.
type FallbackStrategy struct{}

// NewFallbackStrategy creates the fallback extraction strategy.
func NewFallbackStrategy() *FallbackStrategy {
	return &FallbackStrategy{}
}

// Method identifies the strategy.
func (s *FallbackStrategy) Method() model.ExtractionMethod {
	return model.MethodFallback
}

// Extract emits every qualifying fragment at confidence 0.6.
func (s *FallbackStrategy) Extract(_ context.Context, text string) ([]model.Claim, error) {
	var claims []model.Claim

	for _, fragment := range sentenceTerminators.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if len(fragment) <= minFallbackLength {
			continue
		}
		if !containsAny(strings.ToLower(fragment), auxiliaryMarkers) {
			continue
		}

		claims = append(claims, model.Claim{
			Text:       fragment,
			Confidence: 0.6,
			Method:     model.MethodFallback,
		})
	}

	return claims, nil
}
