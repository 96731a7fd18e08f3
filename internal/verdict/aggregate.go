package verdict

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

// Verdict variant tables. Normalization is substring-based and checked in
// this order: true variants, then false, then misleading. Order matters:
// "partially true" and "partially false" reach the earlier tables through
// their true/false substrings before the misleading table sees them,
// which matches the observed behavior and is preserved as is.
var (
	trueVariants       = []string{"true", "correct", "accurate", "verified", "factual"}
	falseVariants      = []string{"false", "incorrect", "inaccurate", "debunked", "disproven"}
	misleadingVariants = []string{"misleading", "partially true", "partially false", "mixed", "unclear"}
)

// Normalize maps a free-form verdict string onto the canonical set.
// Unknown strings map to unverified. Normalize is idempotent: canonical
// verdicts map to themselves.
func Normalize(verdict string) model.Verdict {
	v := strings.ToLower(strings.TrimSpace(verdict))

	for _, variant := range trueVariants {
		if strings.Contains(v, variant) {
			return model.VerdictTrue
		}
	}
	for _, variant := range falseVariants {
		if strings.Contains(v, variant) {
			return model.VerdictFalse
		}
	}
	for _, variant := range misleadingVariants {
		if strings.Contains(v, variant) {
			return model.VerdictMisleading
		}
	}

	return model.VerdictUnverified
}

// Aggregate combines several agent responses into one verdict by majority
// vote over normalized verdicts. Ties resolve to the verdict that reached
// the maximum count first, in response order. The aggregate confidence is
// the mean confidence of the agents that voted with the majority.
func Aggregate(responses []model.AgentResponse) model.AggregatedVerdict {
	if len(responses) == 0 {
		return model.AggregatedVerdict{
			Verdict:      model.VerdictUnverified,
			Confidence:   0.0,
			Explanation:  "No agent responses",
			Distribution: map[model.Verdict]int{},
		}
	}

	normalized := make([]model.Verdict, len(responses))
	counts := make(map[model.Verdict]int)
	var order []model.Verdict // First-occurrence order for deterministic ties

	for i, r := range responses {
		n := Normalize(r.Verdict)
		normalized[i] = n
		if _, seen := counts[n]; !seen {
			order = append(order, n)
		}
		counts[n]++
	}

	winner := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[winner] {
			winner = v
		}
	}

	matching := 0
	totalConfidence := 0.0
	for i, r := range responses {
		if normalized[i] == winner {
			matching++
			totalConfidence += r.Confidence
		}
	}
	confidence := 0.0
	if matching > 0 {
		confidence = totalConfidence / float64(matching)
	}

	parts := make([]string, len(responses))
	for i, r := range responses {
		parts[i] = fmt.Sprintf("Agent %d: %s", i+1, r.Explanation)
	}

	return model.AggregatedVerdict{
		Verdict:      winner,
		Confidence:   confidence,
		Explanation:  strings.Join(parts, "\n\n"),
		Distribution: counts,
	}
}

// AgreementScore is the proportion of verdicts matching the most common
// one. Empty input scores 0.
func AgreementScore(verdicts []string) float64 {
	if len(verdicts) == 0 {
		return 0.0
	}

	counts := make(map[string]int)
	maxCount := 0
	for _, v := range verdicts {
		counts[v]++
		if counts[v] > maxCount {
			maxCount = counts[v]
		}
	}

	return float64(maxCount) / float64(len(verdicts))
}

// CompositeConfidence blends the verification confidence with evidence
// volume, source credibility and evidence agreement:
//
//	0.3*base + 0.3*min(1, log(n+1)/log(10)) + 0.2*credibility + 0.2*agreement
//
// The log term gives diminishing returns on evidence count; ten or more
// sources saturate the factor.
func CompositeConfidence(base float64, evidenceCount int, credibility, agreement float64) float64 {
	evidenceFactor := math.Min(1.0, math.Log(float64(evidenceCount)+1)/math.Log(10))

	confidence := base*0.3 +
		evidenceFactor*0.3 +
		credibility*0.2 +
		agreement*0.2

	return model.Clamp01(confidence)
}
