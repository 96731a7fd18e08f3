package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/aletheia/internal/cache"
	"github.com/ppiankov/aletheia/internal/debate"
	"github.com/ppiankov/aletheia/internal/history"
	"github.com/ppiankov/aletheia/internal/kb"
	"github.com/ppiankov/aletheia/internal/llm"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/pipeline"
	"github.com/ppiankov/aletheia/internal/search"
	"github.com/ppiankov/aletheia/internal/worker"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// loadConfig builds the effective configuration: defaults overlaid
// with the config file viper located. A malformed file is reported and
// ignored rather than aborting the run.
func loadConfig() model.Config {
	cfg := model.DefaultConfig()

	path := viper.ConfigFileUsed()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot read config file %s: %v\n", path, err)
		return model.DefaultConfig()
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: malformed config file %s: %v\n", path, err)
		return model.DefaultConfig()
	}

	return cfg
}

// applyProviderEnv fills provider credentials from the environment.
// Hosted providers refuse to run without their API key; self-hosted
// ones need no credentials.
func applyProviderEnv(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.Endpoint = baseURL
		}
	}
	return nil
}

// buildPipeline wires the verification pipeline from configuration.
// Optional collaborators degrade instead of failing: an unreachable
// knowledge base or history store is logged and skipped.
func buildPipeline(cfg model.Config, logger *zap.Logger) (*pipeline.Pipeline, error) {
	generator, err := llm.NewGenerator(llm.ConfigFromModel(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("configure llm backend: %w", err)
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	store := cache.New(cfg.Cache)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	deps := pipeline.Deps{
		Generator: generator,
		Debate:    debate.NewClient(cfg.Debate, logger),
	}

	if cfg.Search.Enabled {
		deps.Searcher = search.NewClient(cfg, store, limiter, logger)
	}

	if cfg.KB.Enabled {
		cfg.KB.Path = expandHome(cfg.KB.Path)
		kbStore, err := kb.NewStore(cfg.KB, logger)
		if err != nil {
			logger.Warn("knowledge base unavailable", zap.Error(err))
		} else {
			deps.Retriever = kbStore
		}
	}

	if cfg.History.Enabled {
		cfg.History.Path = expandHome(cfg.History.Path)
		histStore, err := history.NewStore(cfg.History, logger)
		if err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			deps.History = histStore
		}
	}

	return pipeline.NewPipeline(cfg, deps, logger), nil
}

// expandHome resolves a leading ~/ against the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
