package model

import "time"

// Config holds all runtime configuration for the verification pipeline
type Config struct {
	HTTP         HTTPConfig         `json:"http" yaml:"http"`
	LLM          LLMConfig          `json:"llm" yaml:"llm"`
	Search       SearchConfig       `json:"search" yaml:"search"`
	KB           KBConfig           `json:"kb" yaml:"kb"`
	Debate       DebateConfig       `json:"debate" yaml:"debate"`
	History      HistoryConfig      `json:"history" yaml:"history"`
	Cache        CacheConfig        `json:"cache" yaml:"cache"`
	Concurrency  ConcurrencyConfig  `json:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `json:"rate_limiting" yaml:"rate_limiting"`
	Output       OutputConfig       `json:"output" yaml:"output"`
}

// HTTPConfig controls outbound HTTP behavior for search and page fetching
type HTTPConfig struct {
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"` // Per-page content fetch
	UserAgent    string        `json:"user_agent" yaml:"user_agent"`
	MaxBodyBytes int64         `json:"max_body_bytes" yaml:"max_body_bytes"`
	InsecureTLS  bool          `json:"insecure_tls" yaml:"insecure_tls"`
	HTTPProxy    string        `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty"`
	HTTPSProxy   string        `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty"`
}

// LLMConfig selects and tunes the generative backend
type LLMConfig struct {
	Provider    string        `json:"provider" yaml:"provider"` // "", "local", "ollama", "openai", "anthropic"
	Endpoint    string        `json:"endpoint" yaml:"endpoint"` // Self-hosted completion endpoint
	Model       string        `json:"model" yaml:"model"`
	APIKey      string        `json:"-" yaml:"-"` // Never persisted
	Temperature float64       `json:"temperature" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// SearchConfig controls the web search collaborator
type SearchConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"` // HTML results endpoint
	Region     string `json:"region" yaml:"region"`
	MaxResults int    `json:"max_results" yaml:"max_results"`
}

// KBConfig controls the local knowledge store
type KBConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	Path         string `json:"path" yaml:"path"` // Store file location
	TopK         int    `json:"top_k" yaml:"top_k"`
	ChunkSize    int    `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap" yaml:"chunk_overlap"`
}

// DebateConfig controls the multi-agent debate microservice
type DebateConfig struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	Endpoint   string        `json:"endpoint" yaml:"endpoint"`
	AgentCount int           `json:"agent_count" yaml:"agent_count"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
}

// HistoryConfig controls the verification history store
type HistoryConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Path       string `json:"path" yaml:"path"`
	MaxEntries int    `json:"max_entries" yaml:"max_entries"` // Oldest runs beyond this are dropped
}

// CacheConfig controls caching of search results and fetched pages
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Dir     string        `json:"dir,omitempty" yaml:"dir,omitempty"` // Empty means memory-only
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
}

// ConcurrencyConfig bounds the verification work done per run
type ConcurrencyConfig struct {
	Workers   int `json:"workers" yaml:"workers"`       // 1 means fully sequential
	MaxClaims int `json:"max_claims" yaml:"max_claims"` // 0 means verify every extracted claim
}

// RateLimitingConfig controls per-domain outbound request pacing
type RateLimitingConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool   `json:"verbose" yaml:"verbose"`
	Format        string `json:"format" yaml:"format"` // "text", "json", "markdown"
	Dir           string `json:"dir,omitempty" yaml:"dir,omitempty"`
	IncludeFooter bool   `json:"include_footer" yaml:"include_footer"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			FetchTimeout: 10 * time.Second,
			UserAgent:    "Aletheia/0.1 (+https://github.com/ppiankov/aletheia)",
			MaxBodyBytes: 10 * 1024 * 1024,
		},
		LLM: LLMConfig{
			Provider:    "local",
			Endpoint:    "http://localhost:8080/v1/completions",
			Model:       "llama-3",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
		},
		Search: SearchConfig{
			Enabled:    true,
			Endpoint:   "https://html.duckduckgo.com/html/",
			Region:     "us-en",
			MaxResults: 5,
		},
		KB: KBConfig{
			Enabled:      true,
			Path:         "~/.aletheia/kb.json",
			TopK:         5,
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Debate: DebateConfig{
			Enabled:    false,
			AgentCount: 3,
			Timeout:    120 * time.Second,
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       "~/.aletheia/history.json",
			MaxEntries: 1000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         2,
		},
		Output: OutputConfig{
			Format:        "text",
			IncludeFooter: true,
		},
	}
}
