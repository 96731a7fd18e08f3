package llm

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewGenerator_Local(t *testing.T) {
	for _, provider := range []string{"", "local"} {
		generator, err := NewGenerator(Config{Provider: provider}, zap.NewNop())
		if err != nil {
			t.Fatalf("Provider %q: unexpected error: %v", provider, err)
		}
		if _, ok := generator.(*CascadeClient); !ok {
			t.Errorf("Provider %q: expected *CascadeClient, got %T", provider, generator)
		}
	}
}

func TestNewGenerator_Ollama(t *testing.T) {
	generator, err := NewGenerator(Config{Provider: "ollama"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	client, ok := generator.(*CascadeClient)
	if !ok {
		t.Fatalf("Expected *CascadeClient, got %T", generator)
	}
	if client.endpoint != "http://localhost:11434/api/generate" {
		t.Errorf("Expected default Ollama endpoint, got %s", client.endpoint)
	}
}

func TestNewGenerator_HostedRequiresAPIKey(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "claude"} {
		if _, err := NewGenerator(Config{Provider: provider}, zap.NewNop()); err == nil {
			t.Errorf("Provider %q: expected error without API key, got nil", provider)
		}
	}
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	_, err := NewGenerator(Config{Provider: "bard"}, zap.NewNop())
	if err == nil {
		t.Fatal("Expected error for unknown provider, got nil")
	}
	if !strings.Contains(err.Error(), "unknown LLM provider") {
		t.Errorf("Unexpected error message: %v", err)
	}
}
