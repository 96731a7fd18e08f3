package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator against OpenAI's Chat Completions
// API. Unlike the cascade client it can fail; callers fall back to the
// rule-based verifier on error.
type OpenAIGenerator struct {
	client *openai.Client
	config Config
}

// NewOpenAIGenerator creates a hosted OpenAI generator
func NewOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (g *OpenAIGenerator) IsAvailable(ctx context.Context) bool {
	_, err := g.client.ListModels(ctx)
	return err == nil
}

// Generate produces a completion via the Chat Completions API
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	model := g.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	temperature := opts.Temperature
	if temperature < 0 {
		temperature = g.config.Temperature
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	if opts.JSONMode {
		prompt = FormatJSONPrompt(prompt)
	}

	timeout := g.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	}
	if opts.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
