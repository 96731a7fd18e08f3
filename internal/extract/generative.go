package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/llm"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/util"
)

const (
	contextPassageLimit   = 3
	contextClipRunes      = 200
	extractionTemperature = 0.3
	extractionMaxTokens   = 1000
)

const extractionPromptTemplate = `Extract all factual claims from the following text. Return a JSON array of claims.

%s

Text to Analyze:
%s

Return format:
[
  {"id": 1, "claim": "claim text here"},
  {"id": 2, "claim": "another claim"}
]

Only extract factual, verifiable claims. Ignore questions, opinions, and statements without factual content.
Use the knowledge base context above to better understand domain-specific terms and concepts.
JSON:`

// ContextPassage is one knowledge-base passage used to ground extraction.
type ContextPassage struct {
	Text  string
	Title string
}

// ContextSource supplies knowledge-base passages relevant to a query.
type ContextSource interface {
	Passages(ctx context.Context, query string, limit int) ([]ContextPassage, error)
}

// GenerativeStrategy asks the generative backend to list the factual
// claims in the text, optionally grounding the prompt with knowledge-base
// passages. Any failure yields an empty result, never an alternate
// extraction path.
type GenerativeStrategy struct {
	generator llm.Generator
	context   ContextSource
	logger    *zap.Logger
}

// NewGenerativeStrategy creates the generative extraction strategy. The
// context source may be nil; extraction then runs without grounding.
func NewGenerativeStrategy(generator llm.Generator, context ContextSource, logger *zap.Logger) *GenerativeStrategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerativeStrategy{
		generator: generator,
		context:   context,
		logger:    logger,
	}
}

// Method identifies the strategy.
func (s *GenerativeStrategy) Method() model.ExtractionMethod {
	return model.MethodGenerative
}

// Extract prompts the backend for a claim array. Claims extracted with
// knowledge-base context get confidence 0.85, without it 0.8.
func (s *GenerativeStrategy) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	contextBlock := s.buildContext(ctx, text)
	prompt := fmt.Sprintf(extractionPromptTemplate, contextBlock, text)

	opts := llm.DefaultOptions()
	opts.Temperature = extractionTemperature
	opts.MaxTokens = extractionMaxTokens
	opts.JSONMode = true

	response, err := s.generator.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("generate claims: %w", err)
	}

	items, err := parseClaimArray(response)
	if err != nil {
		return nil, err
	}

	confidence := 0.8
	if contextBlock != "" {
		confidence = 0.85
	}

	claims := make([]model.Claim, 0, len(items))
	for _, item := range items {
		claimText := strings.TrimSpace(item.Claim)
		if claimText == "" {
			continue
		}
		claims = append(claims, model.Claim{
			Text:       claimText,
			Confidence: confidence,
			Method:     model.MethodGenerative,
		})
	}

	return claims, nil
}

// buildContext renders up to three knowledge-base passages as a prompt
// section. Retrieval failures degrade to an empty context.
func (s *GenerativeStrategy) buildContext(ctx context.Context, text string) string {
	if s.context == nil {
		return ""
	}

	passages, err := s.context.Passages(ctx, text, contextPassageLimit)
	if err != nil {
		s.logger.Warn("knowledge base retrieval failed", zap.Error(err))
		return ""
	}
	if len(passages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nRelevant Knowledge Base Context:\n")
	for i, passage := range passages {
		b.WriteString(fmt.Sprintf("%d. %s...\n", i+1, clipRunes(passage.Text, contextClipRunes)))
		if passage.Title != "" {
			b.WriteString(fmt.Sprintf("   Source: %s\n", passage.Title))
		}
	}
	return b.String()
}

type rawClaim struct {
	ID    int    `json:"id"`
	Claim string `json:"claim"`
}

// parseClaimArray finds the claim array in the response. A bare object is
// accepted as a single-element array.
func parseClaimArray(response string) ([]rawClaim, error) {
	if span := util.FirstJSONArray(response); span != "" {
		var items []rawClaim
		if err := json.Unmarshal([]byte(span), &items); err != nil {
			return nil, fmt.Errorf("decode claim array: %w", err)
		}
		return items, nil
	}

	if span := util.FirstJSONObject(response); span != "" {
		var item rawClaim
		if err := json.Unmarshal([]byte(span), &item); err != nil {
			return nil, fmt.Errorf("decode claim object: %w", err)
		}
		return []rawClaim{item}, nil
	}

	return nil, fmt.Errorf("no JSON in extraction response")
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
