package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewGenerator creates a generative backend based on configuration.
// Provider "ollama" is an alias for the cascade client pointed at an
// Ollama endpoint; the cascade detects the dialect from the URL.
func NewGenerator(config Config, logger *zap.Logger) (Generator, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIGenerator(config)

	case "anthropic", "claude":
		return NewAnthropicGenerator(config)

	case "ollama":
		if config.Endpoint == "" {
			config.Endpoint = "http://localhost:11434/api/generate"
		}
		return NewCascadeClient(config, logger), nil

	case "", "local":
		return NewCascadeClient(config, logger), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: local, ollama, openai, anthropic)", config.Provider)
	}
}
