package llm

import (
	"encoding/json"
	"testing"
)

func decodeFallback(t *testing.T, text string) fallbackVerdict {
	t.Helper()
	var v fallbackVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("Fallback output is not valid JSON: %v\n%s", err, text)
	}
	return v
}

func TestRuleBasedCompletion(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		verdict    string
		confidence float64
	}{
		{
			name:       "false indicators dominate",
			prompt:     "Claim: the moon landing was a hoax and never happened.",
			verdict:    "false",
			confidence: 0.6,
		},
		{
			name:       "true indicators dominate",
			prompt:     "Claim: the result was confirmed and verified by researchers.",
			verdict:    "true",
			confidence: 0.6,
		},
		{
			name:       "misleading indicators",
			prompt:     "Claim: the quote was taken out of context.",
			verdict:    "misleading",
			confidence: 0.55,
		},
		{
			name:       "no indicators",
			prompt:     "Claim: the bridge opened in 1937.",
			verdict:    "unverified",
			confidence: 0.5,
		},
		{
			name:       "tied true and false counts stay unverified",
			prompt:     "Claim: a fake story was later confirmed.",
			verdict:    "unverified",
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decodeFallback(t, ruleBasedCompletion(tt.prompt))
			if result.Verdict != tt.verdict {
				t.Errorf("Expected verdict %s, got %s", tt.verdict, result.Verdict)
			}
			if result.Confidence != tt.confidence {
				t.Errorf("Expected confidence %.2f, got %.2f", tt.confidence, result.Confidence)
			}
			if result.Explanation == "" {
				t.Error("Expected non-empty explanation")
			}
			if result.Citations == nil {
				t.Error("Expected citations to be an empty array, not null")
			}
		})
	}
}

func TestRuleBasedCompletionCaseInsensitive(t *testing.T) {
	result := decodeFallback(t, ruleBasedCompletion("This is a HOAX and a CONSPIRACY."))
	if result.Verdict != "false" {
		t.Errorf("Expected false for upper-case indicators, got %s", result.Verdict)
	}
}
