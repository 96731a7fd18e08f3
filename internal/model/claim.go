package model

// Claim represents a single factual assertion extracted from input text
type Claim struct {
	ID         int              `json:"id"`         // Rank position (1-based, assigned after fusion)
	Text       string           `json:"text"`       // The claim text itself
	Confidence float64          `json:"confidence"` // Extraction confidence in [0,1]
	Method     ExtractionMethod `json:"method"`     // Which strategy produced it
}

// ExtractionMethod identifies the strategy that produced a claim
type ExtractionMethod string

const (
	MethodStructural ExtractionMethod = "structural" // Sentence-level linguistic heuristics
	MethodGenerative ExtractionMethod = "generative" // Backend-assisted extraction
	MethodFallback   ExtractionMethod = "fallback"   // Naive fragment splitting
)

// Verdict is the canonical outcome of verifying a claim
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictUnverified Verdict = "unverified"
)

// VerificationResult is the fully populated outcome for one claim.
// The fallback chain guarantees every field is set: a result never
// carries an empty verdict or an out-of-range confidence.
type VerificationResult struct {
	Verdict     Verdict  `json:"verdict"`
	Confidence  float64  `json:"confidence"` // Always clamped to [0,1]
	Explanation string   `json:"explanation"`
	Citations   []string `json:"citations"`
}

// AgentResponse is one participant's answer in a multi-agent debate
type AgentResponse struct {
	Agent       string  `json:"agent,omitempty"` // Participant label, e.g. "fact_checker"
	Verdict     string  `json:"verdict"`         // Raw verdict, normalized during aggregation
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// AggregatedVerdict is the majority outcome over several agent responses
type AggregatedVerdict struct {
	Verdict      Verdict         `json:"verdict"`
	Confidence   float64         `json:"confidence"` // Mean confidence of agents voting with the majority
	Explanation  string          `json:"explanation"`
	Distribution map[Verdict]int `json:"distribution"` // Vote counts per normalized verdict
}

// Clamp01 bounds a score to [0,1]. Every confidence or trust score in the
// system passes through this at the point of computation.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
