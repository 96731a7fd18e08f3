package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	verifyMode    string
	topK          int
	maxClaims     int
	claimWorkers  int
	verifyTimeout time.Duration
	outJSON       string
	outMD         string
	outputFormat  string
	noCache       bool
	noFooter      bool
	insecureTLS   bool
	noSearch      bool
	noKB          bool
	llmProvider   string
	llmModel      string
	llmEndpoint   string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <text>",
	Short: "Verify the factual claims in a statement",
	Long: `Verify extracts the checkable claims from a piece of text and
evaluates each one:
- Extract factual claims (structural analysis, LLM-assisted when available)
- Gather evidence from web search and the local knowledge base
- Score the credibility of every source consulted
- Render a per-claim verdict with explanation and citations

Example:
  aletheia verify "The Great Wall of China is visible from space."
  aletheia verify "Napoleon was short." --mode debate
  aletheia verify "..." --json report.json --md report.md
  aletheia verify "..." --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Verification flags
	verifyCmd.Flags().StringVar(&verifyMode, "mode", "", "verification mode: single or debate (default from config)")
	verifyCmd.Flags().IntVar(&topK, "top-k", 5, "web search results per claim")
	verifyCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "cap on claims verified per run (0 = no cap)")
	verifyCmd.Flags().IntVar(&claimWorkers, "workers", 1, "concurrent claim verifications")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 2*time.Minute, "overall verification timeout")

	// Output flags
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "write JSON report to path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "write Markdown report to path (optional)")
	verifyCmd.Flags().StringVar(&outputFormat, "output", "", "stdout format: text, json or markdown")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Evidence flags
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh searches)")
	verifyCmd.Flags().BoolVar(&noSearch, "no-search", false, "disable web search evidence")
	verifyCmd.Flags().BoolVar(&noKB, "no-kb", false, "disable knowledge base evidence")
	verifyCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	// LLM flags
	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (local, ollama, openai, anthropic)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	verifyCmd.Flags().StringVar(&llmEndpoint, "llm-endpoint", "", "LLM endpoint URL for self-hosted backends")
}

func runVerify(cmd *cobra.Command, args []string) error {
	text := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg := loadConfig()
	if err := applyVerifyFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := applyProviderEnv(&cfg); err != nil {
		return err
	}

	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	mode := "single"
	if cfg.Debate.Enabled {
		mode = "debate"
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s\n", clipText(text, 80))
		fmt.Fprintf(os.Stderr, "Mode: %s\n", mode)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", verifyTimeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	report, err := p.Verify(ctx, text)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", len(report.Claims))
		if report.Credibility.SourceCount > 0 {
			fmt.Fprintf(os.Stderr, "✓ Consulted %d sources (average trust %.2f)\n",
				report.Credibility.SourceCount, report.Credibility.AverageTrustScore)
		}
		fmt.Fprintf(os.Stderr, "✓ Completed in %.1fs\n", float64(report.ElapsedMS)/1000)
		fmt.Fprintln(os.Stderr)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	switch cfg.Output.Format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Println(string(data))
	case "markdown":
		fmt.Print(renderer.Markdown(report))
	default:
		renderer.WriteSummary(os.Stdout, report)
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)
		}
	}

	return nil
}

// applyVerifyFlags overlays explicitly set flags onto the loaded
// configuration. Unset flags leave the config file values alone.
func applyVerifyFlags(cmd *cobra.Command, cfg *model.Config) error {
	if verifyMode != "" {
		switch verifyMode {
		case "single":
			cfg.Debate.Enabled = false
		case "debate":
			cfg.Debate.Enabled = true
		default:
			return fmt.Errorf("unknown mode: %s (supported: single, debate)", verifyMode)
		}
	}
	if cfg.Debate.Enabled && cfg.Debate.Endpoint == "" {
		return fmt.Errorf("debate mode requires debate.endpoint in the config file")
	}

	if cmd.Flags().Changed("top-k") {
		cfg.Search.MaxResults = topK
	}
	if cmd.Flags().Changed("max-claims") {
		cfg.Concurrency.MaxClaims = maxClaims
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.Workers = claimWorkers
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if noSearch {
		cfg.Search.Enabled = false
	}
	if noKB {
		cfg.KB.Enabled = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	cfg.Output.Verbose = verbose

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		// A new provider invalidates a configured endpoint unless one
		// is given explicitly; the factory fills the provider default.
		if llmEndpoint == "" {
			cfg.LLM.Endpoint = ""
		}
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if llmEndpoint != "" {
		cfg.LLM.Endpoint = llmEndpoint
	}

	return nil
}

// clipText truncates s to limit runes for log lines
func clipText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
