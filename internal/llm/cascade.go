package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/util"
)

// CascadeClient talks to a self-hosted completion backend without knowing
// its exact dialect in advance. It walks an ordered list of wire shapes
// until one yields usable text:
//
//  1. OpenAI-compatible completion (or Ollama generate, when the endpoint
//     looks like an Ollama server)
//  2. Raw llama.cpp-style completion
//  3. A deterministic keyword fallback that always produces a verdict
//
// Transport refusal and malformed response bodies are the same kind of
// failure: both advance the cascade. Generate therefore never returns an
// error.
type CascadeClient struct {
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// wireKind tags which dialect produced a response body
type wireKind string

const (
	wireOpenAI wireKind = "openai"
	wireOllama wireKind = "ollama"
	wireRaw    wireKind = "raw"
)

// rawStopTokens terminate a raw llama.cpp-style completion
var rawStopTokens = []string{"</s>", "\n\n\n"}

type openAICompletionRequest struct {
	Model          string          `json:"model"`
	Prompt         string          `json:"prompt"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type ollamaGenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	Stream      bool    `json:"stream"`
}

type rawCompletionRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	NPredict    int      `json:"n_predict"`
	Stop        []string `json:"stop"`
}

// completionResponse is a superset of every dialect's response body.
// The text method projects it through the lens of one wire kind.
type completionResponse struct {
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Content  string `json:"content"`
	Response string `json:"response"`
	Text     string `json:"text"`
}

// text extracts the completion for the given dialect. An empty result is
// a decode failure: the caller advances the cascade.
func (r completionResponse) text(kind wireKind) (string, error) {
	switch kind {
	case wireOpenAI:
		if len(r.Choices) > 0 {
			if r.Choices[0].Text != "" {
				return r.Choices[0].Text, nil
			}
			if r.Choices[0].Message.Content != "" {
				return r.Choices[0].Message.Content, nil
			}
		}
		if r.Content != "" {
			return r.Content, nil
		}
	case wireOllama:
		if r.Response != "" {
			return r.Response, nil
		}
		if r.Content != "" {
			return r.Content, nil
		}
	case wireRaw:
		if r.Content != "" {
			return r.Content, nil
		}
		if r.Text != "" {
			return r.Text, nil
		}
	}
	return "", fmt.Errorf("no completion text in %s response", kind)
}

// NewCascadeClient creates a cascade client for a self-hosted endpoint
func NewCascadeClient(config Config, logger *zap.Logger) *CascadeClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:8080/v1/completions"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	temperature := config.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &CascadeClient{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		model:       config.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(config.HTTPProxy, config.HTTPSProxy),
			},
		},
		logger: logger,
	}
}

// Name returns the provider name
func (c *CascadeClient) Name() string {
	return "local"
}

// IsAvailable probes the configured endpoint. The cascade still answers
// when this is false; the rule-based tier takes over.
func (c *CascadeClient) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Generate walks the wire-shape cascade. It always returns text and a nil
// error: when every remote dialect fails, the deterministic keyword
// fallback answers instead.
func (c *CascadeClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	temperature := opts.Temperature
	if temperature < 0 {
		temperature = c.temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	if opts.JSONMode {
		prompt = FormatJSONPrompt(prompt)
	}

	text, err := c.tryPrimary(ctx, prompt, temperature, maxTokens, opts.JSONMode)
	if err == nil {
		return text, nil
	}
	c.logger.Debug("primary wire shape failed", zap.String("endpoint", c.endpoint), zap.Error(err))

	text, err = c.tryRaw(ctx, prompt, temperature, maxTokens)
	if err == nil {
		return text, nil
	}
	c.logger.Debug("raw completion shape failed", zap.String("endpoint", c.endpoint), zap.Error(err))

	return ruleBasedCompletion(prompt), nil
}

// tryPrimary sends the OpenAI-compatible shape, or the Ollama generate
// shape when the endpoint looks like an Ollama server.
func (c *CascadeClient) tryPrimary(ctx context.Context, prompt string, temperature float64, maxTokens int, jsonMode bool) (string, error) {
	if c.isOllamaEndpoint() {
		payload := ollamaGenerateRequest{
			Model:       c.model,
			Prompt:      prompt,
			Temperature: temperature,
			NumPredict:  maxTokens,
			Stream:      false,
		}
		return c.post(ctx, payload, wireOllama)
	}

	payload := openAICompletionRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if jsonMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return c.post(ctx, payload, wireOpenAI)
}

// tryRaw sends the llama.cpp-style completion shape
func (c *CascadeClient) tryRaw(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	payload := rawCompletionRequest{
		Prompt:      prompt,
		Temperature: temperature,
		NPredict:    maxTokens,
		Stop:        rawStopTokens,
	}
	return c.post(ctx, payload, wireRaw)
}

// isOllamaEndpoint detects Ollama servers by their conventional port or
// generate path.
func (c *CascadeClient) isOllamaEndpoint() bool {
	return strings.Contains(c.endpoint, ":11434") || strings.Contains(c.endpoint, "/api/generate")
}

// post sends one payload and decodes the response through the given wire
// kind. Any transport, status or decode problem comes back as an error.
func (c *CascadeClient) post(ctx context.Context, payload interface{}, kind wireKind) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", httpResp.StatusCode, truncateBody(respBody))
	}

	var resp completionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return resp.text(kind)
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
