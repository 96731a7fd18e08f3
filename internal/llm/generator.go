package llm

import (
	"context"
	"time"

	"github.com/ppiankov/aletheia/internal/model"
)

// Generator is the interface to a generative text backend
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate produces a text completion for the prompt. Implementations
	// wrap transport and decoding failures; the cascade client never
	// returns an error at all.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// IsAvailable reports whether the backend is reachable and configured
	IsAvailable(ctx context.Context) bool
}

// Options tunes a single generation call. A negative Temperature or a zero
// MaxTokens falls back to the client's configured default.
type Options struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool // Demand a JSON-only response
}

// DefaultOptions returns options that defer entirely to client defaults
func DefaultOptions() Options {
	return Options{Temperature: -1}
}

// Config holds generative backend configuration
type Config struct {
	// Provider name: "local", "ollama", "openai", "anthropic", ""
	Provider string

	// Endpoint for self-hosted backends (completion or Ollama URL)
	Endpoint string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// Temperature is the default sampling temperature
	Temperature float64

	// MaxTokens is the default completion budget
	MaxTokens int

	// Timeout bounds a single backend call
	Timeout time.Duration

	// Proxy settings for the self-hosted transport
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultLLMConfig returns sensible defaults for a local backend
func DefaultLLMConfig() Config {
	return Config{
		Provider:    "local",
		Endpoint:    "http://localhost:8080/v1/completions",
		Model:       "llama-3",
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     60 * time.Second,
	}
}

// ConfigFromModel converts the application configuration into an llm.Config
func ConfigFromModel(cfg model.Config) Config {
	return Config{
		Provider:    cfg.LLM.Provider,
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
	}
}

// FormatJSONPrompt appends the JSON-only instruction to a prompt
func FormatJSONPrompt(prompt string) string {
	return prompt + "\n\nImportant: Respond with valid JSON only. Do not include any text before or after the JSON."
}
