package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/aletheia/internal/llm"
	"github.com/ppiankov/aletheia/internal/model"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	lastOpts   llm.Options
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) IsAvailable(ctx context.Context) bool { return s.err == nil }

func (s *stubGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	s.lastPrompt = prompt
	s.lastOpts = opts
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubContextSource struct {
	passages  []ContextPassage
	err       error
	lastQuery string
}

func (s *stubContextSource) Passages(ctx context.Context, query string, limit int) ([]ContextPassage, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.passages, nil
}

func TestGenerativeStrategy_ParsesClaimArray(t *testing.T) {
	stub := &stubGenerator{
		response: `[{"id": 1, "claim": "The bridge opened in 1937."}, {"id": 2, "claim": "It spans 2.7 kilometres."}]`,
	}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	claims, err := strategy.Extract(context.Background(), "The bridge opened in 1937 and spans 2.7 kilometres.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}
	if claims[0].Text != "The bridge opened in 1937." {
		t.Errorf("Unexpected first claim: %s", claims[0].Text)
	}
	for _, claim := range claims {
		if claim.Confidence != 0.8 {
			t.Errorf("Expected confidence 0.8 without context, got %f", claim.Confidence)
		}
		if claim.Method != model.MethodGenerative {
			t.Errorf("Expected generative method, got %s", claim.Method)
		}
	}
	if stub.lastOpts.Temperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %f", stub.lastOpts.Temperature)
	}
	if stub.lastOpts.MaxTokens != 1000 {
		t.Errorf("Expected max tokens 1000, got %d", stub.lastOpts.MaxTokens)
	}
	if !stub.lastOpts.JSONMode {
		t.Error("Expected JSON mode")
	}
}

func TestGenerativeStrategy_ExtractsEmbeddedArray(t *testing.T) {
	stub := &stubGenerator{
		response: "Here are the claims:\n[{\"id\": 1, \"claim\": \"Water boils at 100 degrees Celsius.\"}]\nDone.",
	}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	claims, err := strategy.Extract(context.Background(), "Water boils at 100 degrees Celsius at sea level.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim, got %d", len(claims))
	}
}

func TestGenerativeStrategy_AcceptsSingleObject(t *testing.T) {
	stub := &stubGenerator{response: `{"id": 1, "claim": "Lone claim accepted here."}`}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	claims, err := strategy.Extract(context.Background(), "Some input text long enough to analyze.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 || claims[0].Text != "Lone claim accepted here." {
		t.Errorf("Unexpected claims: %v", claims)
	}
}

func TestGenerativeStrategy_FiltersBlankClaims(t *testing.T) {
	stub := &stubGenerator{
		response: `[{"id": 1, "claim": "   "}, {"id": 2, "claim": "Valid claim text here."}]`,
	}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	claims, err := strategy.Extract(context.Background(), "Some input text long enough to analyze.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("Expected 1 claim after filtering, got %d", len(claims))
	}
	if claims[0].Text != "Valid claim text here." {
		t.Errorf("Unexpected claim: %s", claims[0].Text)
	}
}

func TestGenerativeStrategy_ContextRaisesConfidence(t *testing.T) {
	stub := &stubGenerator{response: `[{"id": 1, "claim": "Sea levels rose during the last century."}]`}
	source := &stubContextSource{
		passages: []ContextPassage{
			{Text: "Sea levels rose 20 centimetres since 1900", Title: "Climate Report"},
			{Text: strings.Repeat("c", 250)},
		},
	}
	strategy := NewGenerativeStrategy(stub, source, nil)

	input := "Sea levels rose noticeably during the last century."
	claims, err := strategy.Extract(context.Background(), input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(claims) != 1 || claims[0].Confidence != 0.85 {
		t.Fatalf("Expected 1 claim at confidence 0.85, got %v", claims)
	}
	if source.lastQuery != input {
		t.Errorf("Expected retrieval query to be the input text, got %q", source.lastQuery)
	}
	if !strings.Contains(stub.lastPrompt, "Relevant Knowledge Base Context:") {
		t.Error("Prompt missing context section")
	}
	if !strings.Contains(stub.lastPrompt, "1. Sea levels rose 20 centimetres since 1900...") {
		t.Error("Prompt missing first passage")
	}
	if !strings.Contains(stub.lastPrompt, "   Source: Climate Report") {
		t.Error("Prompt missing passage source line")
	}
	if !strings.Contains(stub.lastPrompt, strings.Repeat("c", 200)+"...") {
		t.Error("Prompt missing clipped second passage")
	}
	if strings.Contains(stub.lastPrompt, strings.Repeat("c", 201)) {
		t.Error("Second passage was not clipped to 200 runes")
	}
}

func TestGenerativeStrategy_RetrievalFailureDegradesToNoContext(t *testing.T) {
	stub := &stubGenerator{response: `[{"id": 1, "claim": "A perfectly ordinary claim."}]`}
	source := &stubContextSource{err: errors.New("store unavailable")}
	strategy := NewGenerativeStrategy(stub, source, nil)

	claims, err := strategy.Extract(context.Background(), "Some input text long enough to analyze.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(claims) != 1 || claims[0].Confidence != 0.8 {
		t.Fatalf("Expected 1 claim at confidence 0.8, got %v", claims)
	}
	if strings.Contains(stub.lastPrompt, "Relevant Knowledge Base Context:") {
		t.Error("Prompt should not contain a context section after retrieval failure")
	}
}

func TestGenerativeStrategy_GeneratorError(t *testing.T) {
	stub := &stubGenerator{err: errors.New("connection refused")}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	_, err := strategy.Extract(context.Background(), "Some input text long enough to analyze.")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestGenerativeStrategy_NonJSONResponse(t *testing.T) {
	stub := &stubGenerator{response: "I cannot help with that."}
	strategy := NewGenerativeStrategy(stub, nil, nil)

	_, err := strategy.Extract(context.Background(), "Some input text long enough to analyze.")
	if err == nil {
		t.Fatal("Expected error for non-JSON response, got nil")
	}
}
