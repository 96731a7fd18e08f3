package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCascadeClient_Generate_OpenAIShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["model"] != "llama-3" {
			t.Errorf("Expected model llama-3, got %v", req["model"])
		}
		if _, ok := req["max_tokens"]; !ok {
			t.Error("Expected max_tokens in OpenAI-shape payload")
		}
		_, _ = w.Write([]byte(`{"choices": [{"text": "generated text"}]}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{
		Endpoint: server.URL,
		Model:    "llama-3",
		Timeout:  5 * time.Second,
	}, nil)

	text, err := client.Generate(context.Background(), "test prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "generated text" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_ChatStyleChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "from chat shape"}}]}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, nil)

	text, err := client.Generate(context.Background(), "prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "from chat shape" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_BareContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": "bare content"}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, nil)

	text, err := client.Generate(context.Background(), "prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "bare content" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_OllamaEndpointDetection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if _, ok := req["num_predict"]; !ok {
			t.Error("Expected num_predict in Ollama payload")
		}
		if stream, ok := req["stream"].(bool); !ok || stream {
			t.Errorf("Expected stream false, got %v", req["stream"])
		}
		if _, ok := req["max_tokens"]; ok {
			t.Error("Ollama payload must not carry max_tokens")
		}
		_, _ = w.Write([]byte(`{"response": "ollama answer"}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{
		Endpoint: server.URL + "/api/generate",
		Model:    "llama3.1",
		Timeout:  5 * time.Second,
	}, nil)

	text, err := client.Generate(context.Background(), "prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "ollama answer" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_FallsBackToRawShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if _, ok := req["n_predict"]; ok {
			// Raw shape: accept and verify stop tokens
			stops, _ := req["stop"].([]interface{})
			if len(stops) != 2 {
				t.Errorf("Expected 2 stop tokens, got %v", req["stop"])
			}
			_, _ = w.Write([]byte(`{"content": "raw shape answer"}`))
			return
		}
		// OpenAI shape: reject
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "unknown field max_tokens"}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, nil)

	text, err := client.Generate(context.Background(), "prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "raw shape answer" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_UnknownShapeAdvancesCascade(t *testing.T) {
	rawCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if _, ok := req["n_predict"]; ok {
			rawCalled = true
			_, _ = w.Write([]byte(`{"text": "raw text field"}`))
			return
		}
		// Well-formed JSON with no recognizable completion field
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, nil)

	text, err := client.Generate(context.Background(), "prompt", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !rawCalled {
		t.Error("Expected unknown response shape to advance to raw tier")
	}
	if text != "raw text field" {
		t.Errorf("Unexpected text: %s", text)
	}
}

func TestCascadeClient_Generate_UnreachableEndpointStillAnswers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Connection refused from here on

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 2 * time.Second}, nil)

	text, err := client.Generate(context.Background(), "Claim: the sky is plaid.", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate must not fail, got: %v", err)
	}

	var verdict struct {
		Verdict     string   `json:"verdict"`
		Confidence  float64  `json:"confidence"`
		Explanation string   `json:"explanation"`
		Citations   []string `json:"citations"`
	}
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		t.Fatalf("Fallback output is not valid JSON: %v\n%s", err, text)
	}
	if verdict.Verdict != "unverified" {
		t.Errorf("Expected unverified for neutral prompt, got %s", verdict.Verdict)
	}
	if verdict.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %.2f", verdict.Confidence)
	}
	if verdict.Citations == nil || len(verdict.Citations) != 0 {
		t.Errorf("Expected empty citations slice, got %v", verdict.Citations)
	}
}

func TestCascadeClient_Generate_JSONMode(t *testing.T) {
	var gotPrompt string
	var gotFormat interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		gotPrompt, _ = req["prompt"].(string)
		gotFormat = req["response_format"]
		_, _ = w.Write([]byte(`{"choices": [{"text": "{}"}]}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 5 * time.Second}, nil)

	_, err := client.Generate(context.Background(), "base prompt", Options{Temperature: 0.3, JSONMode: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !strings.Contains(gotPrompt, "Respond with valid JSON only") {
		t.Errorf("Expected JSON instruction appended to prompt, got %q", gotPrompt)
	}
	format, ok := gotFormat.(map[string]interface{})
	if !ok || format["type"] != "json_object" {
		t.Errorf("Expected response_format json_object, got %v", gotFormat)
	}
}

func TestCascadeClient_Generate_OptionDefaults(t *testing.T) {
	var gotTemperature float64
	var gotMaxTokens float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		gotTemperature, _ = req["temperature"].(float64)
		gotMaxTokens, _ = req["max_tokens"].(float64)
		_, _ = w.Write([]byte(`{"content": "ok"}`))
	}))
	defer server.Close()

	client := NewCascadeClient(Config{
		Endpoint:    server.URL,
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     5 * time.Second,
	}, nil)

	// Negative temperature and zero max tokens defer to config
	_, err := client.Generate(context.Background(), "p", DefaultOptions())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotTemperature != 0.7 {
		t.Errorf("Expected default temperature 0.7, got %v", gotTemperature)
	}
	if gotMaxTokens != 2048 {
		t.Errorf("Expected default max tokens 2048, got %v", gotMaxTokens)
	}

	// Explicit options pass through
	_, err = client.Generate(context.Background(), "p", Options{Temperature: 0.3, MaxTokens: 800})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotTemperature != 0.3 {
		t.Errorf("Expected temperature 0.3, got %v", gotTemperature)
	}
	if gotMaxTokens != 800 {
		t.Errorf("Expected max tokens 800, got %v", gotMaxTokens)
	}
}

func TestCascadeClient_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed) // Any HTTP answer counts as reachable
	}))

	client := NewCascadeClient(Config{Endpoint: server.URL, Timeout: 2 * time.Second}, nil)
	if !client.IsAvailable(context.Background()) {
		t.Error("Expected available while server is up")
	}

	server.Close()
	if client.IsAvailable(context.Background()) {
		t.Error("Expected unavailable after server close")
	}
}
