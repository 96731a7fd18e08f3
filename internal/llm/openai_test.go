package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIGenerator_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: `{"verdict": "true", "confidence": 0.9}`,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	config := Config{
		APIKey:   "test-key",
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
		Timeout:  5 * time.Second,
	}
	generator, err := NewOpenAIGenerator(config)
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}

	text, err := generator.Generate(context.Background(), "verify this", Options{Temperature: 0.3, JSONMode: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != `{"verdict": "true", "confidence": 0.9}` {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestOpenAIGenerator_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator(Config{
		APIKey:   "bad-key",
		Endpoint: server.URL,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create generator: %v", err)
	}

	_, err = generator.Generate(context.Background(), "prompt", DefaultOptions())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "OpenAI API error") {
		t.Errorf("Expected wrapped OpenAI API error, got %v", err)
	}
}

func TestOpenAIGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGenerator(Config{})
	if err == nil {
		t.Fatal("Expected error when API key missing, got nil")
	}
}
