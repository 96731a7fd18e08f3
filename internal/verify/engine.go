package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/llm"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/util"
	"github.com/ppiankov/aletheia/internal/verdict"
)

const (
	defaultVerifyTimeout = 60 * time.Second
	maxPromptEvidence    = 5
	verifyTemperature    = 0.3
)

const verifyPromptTemplate = `You are a fact-checking expert. Analyze the following claim and evidence to determine its veracity.

Claim: %s

Evidence:
%s

Provide your analysis in JSON format with the following structure:
{
  "verdict": "true" | "false" | "misleading" | "unverified",
  "confidence": 0.0-1.0,
  "explanation": "Detailed explanation of your reasoning",
  "citations": ["source1", "source2"]
}

JSON:`

// Engine verifies claims by prompting a generative backend with the
// gathered evidence. Whenever the backend errors or returns something
// that does not decode into a verdict, the engine hands the claim to
// RuleBased instead of retrying the generative call.
type Engine struct {
	generator llm.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewEngine creates a verification engine around a generator.
func NewEngine(generator llm.Generator, timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// rawVerdict tolerates the loose JSON generative backends produce: the
// confidence may arrive as a number or a quoted number.
type rawVerdict struct {
	Verdict     string          `json:"verdict"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation string          `json:"explanation"`
	Citations   []string        `json:"citations"`
}

// Verify produces a complete VerificationResult for one claim. It never
// returns an error: parse failures and backend errors fall through to
// rule-based analysis of the same evidence, as does a missing generator.
func (e *Engine) Verify(ctx context.Context, claim string, evidence []model.Evidence) model.VerificationResult {
	if e.generator == nil {
		return RuleBased(claim, evidence)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	prompt := fmt.Sprintf(verifyPromptTemplate, claim, buildEvidenceBlock(evidence))

	opts := llm.DefaultOptions()
	opts.Temperature = verifyTemperature
	opts.JSONMode = true

	response, err := e.generator.Generate(ctx, prompt, opts)
	if err != nil {
		e.logger.Warn("generative verification failed, using rule-based analysis",
			zap.String("provider", e.generator.Name()),
			zap.Error(err))
		return RuleBased(claim, evidence)
	}

	result, err := parseVerdictResponse(response)
	if err != nil {
		e.logger.Warn("unparseable verification response, using rule-based analysis",
			zap.String("provider", e.generator.Name()),
			zap.Error(err))
		return RuleBased(claim, evidence)
	}
	return result
}

// buildEvidenceBlock renders the top evidence items as numbered source
// sections for the prompt.
func buildEvidenceBlock(evidence []model.Evidence) string {
	limit := len(evidence)
	if limit > maxPromptEvidence {
		limit = maxPromptEvidence
	}

	sections := make([]string, 0, limit)
	for i, ev := range evidence[:limit] {
		title := ev.Title
		if title == "" {
			title = "Unknown"
		}
		sections = append(sections, fmt.Sprintf("Source %d: %s\n%s\n", i+1, title, ev.Passage()))
	}
	return strings.Join(sections, "\n")
}

// parseVerdictResponse extracts the first balanced JSON object from the
// response and coerces its fields into a VerificationResult.
func parseVerdictResponse(response string) (model.VerificationResult, error) {
	span := util.FirstJSONObject(response)
	if span == "" {
		return model.VerificationResult{}, fmt.Errorf("no JSON object in response")
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return model.VerificationResult{}, fmt.Errorf("decode verdict: %w", err)
	}

	confidence, err := coerceConfidence(raw.Confidence)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("coerce confidence: %w", err)
	}

	citations := raw.Citations
	if citations == nil {
		citations = []string{}
	}

	return model.VerificationResult{
		Verdict:     verdict.Normalize(raw.Verdict),
		Confidence:  model.Clamp01(confidence),
		Explanation: raw.Explanation,
		Citations:   citations,
	}, nil
}

// coerceConfidence accepts a JSON number or a quoted numeric string and
// defaults to 0.5 when the field is absent.
func coerceConfidence(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0.5, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, nil
	}

	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		number, err := strconv.ParseFloat(strings.TrimSpace(quoted), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence %q is not numeric", quoted)
		}
		return number, nil
	}

	return 0, fmt.Errorf("confidence has unsupported JSON type")
}
