package llm

import (
	"encoding/json"
	"strings"
)

// Keyword tables for the terminal cascade tier. These scan the whole
// prompt, which for verification prompts includes the claim and evidence
// text.
var (
	fallbackFalseIndicators      = []string{"never happened", "fake", "hoax", "conspiracy", "false", "not true"}
	fallbackTrueIndicators       = []string{"confirmed", "verified", "proven", "fact", "true", "accurate"}
	fallbackMisleadingIndicators = []string{"partially", "somewhat", "misleading", "out of context"}
)

type fallbackVerdict struct {
	Verdict     string   `json:"verdict"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Citations   []string `json:"citations"`
}

// ruleBasedCompletion is the cascade's terminal tier: a pure keyword scan
// over the prompt that always emits a JSON verdict string. It cannot fail,
// which is what makes the cascade total.
func ruleBasedCompletion(prompt string) string {
	promptLower := strings.ToLower(prompt)

	falseCount := countIndicators(promptLower, fallbackFalseIndicators)
	trueCount := countIndicators(promptLower, fallbackTrueIndicators)
	misleadingCount := countIndicators(promptLower, fallbackMisleadingIndicators)

	result := fallbackVerdict{
		Verdict:     "unverified",
		Confidence:  0.5,
		Explanation: "Unable to verify using LLM. Please ensure a local LLM endpoint is running (e.g., LocalAI, llama.cpp, or TextGen WebUI) at the configured endpoint.",
		Citations:   []string{},
	}

	switch {
	case falseCount > trueCount && falseCount > 0:
		result.Verdict = "false"
		result.Confidence = 0.6
		result.Explanation = "Based on keyword analysis, this claim appears to be false. However, this is a fallback analysis - for accurate verification, please set up a local LLM endpoint."
	case trueCount > falseCount && trueCount > 0:
		result.Verdict = "true"
		result.Confidence = 0.6
		result.Explanation = "Based on keyword analysis, this claim appears to be true. However, this is a fallback analysis - for accurate verification, please set up a local LLM endpoint."
	case misleadingCount > 0:
		result.Verdict = "misleading"
		result.Confidence = 0.55
		result.Explanation = "Based on keyword analysis, this claim may be misleading. However, this is a fallback analysis - for accurate verification, please set up a local LLM endpoint."
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		// Marshaling a flat struct of strings and floats cannot fail
		return `{"verdict": "unverified", "confidence": 0.5, "explanation": "fallback encoding error", "citations": []}`
	}
	return string(encoded)
}

func countIndicators(text string, indicators []string) int {
	count := 0
	for _, indicator := range indicators {
		if strings.Contains(text, indicator) {
			count++
		}
	}
	return count
}
