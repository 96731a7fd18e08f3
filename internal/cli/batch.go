package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/ppiankov/aletheia/internal/pipeline"
	"github.com/ppiankov/aletheia/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchWorkers int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple statements from a file in parallel",
	Long: `Batch verifies multiple statements concurrently:
- Read statements from input file (one per line, # comments skipped)
- Verify statements in parallel with configurable worker count
- Generate individual JSON and Markdown reports for each statement

Example:
  aletheia batch statements.txt
  aletheia batch statements.txt --concurrency 10 --output-dir ./reports
  aletheia batch statements.txt --llm-provider openai --timeout 1h`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&batchWorkers, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./aletheia-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Inherit flags from verify command
	batchCmd.Flags().IntVar(&topK, "top-k", 5, "web search results per claim")
	batchCmd.Flags().IntVar(&maxClaims, "max-claims", 0, "cap on claims verified per statement (0 = no cap)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh searches)")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&noSearch, "no-search", false, "disable web search evidence")
	batchCmd.Flags().BoolVar(&noKB, "no-kb", false, "disable knowledge base evidence")
	batchCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	// LLM flags
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (local, ollama, openai, anthropic)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	batchCmd.Flags().StringVar(&llmEndpoint, "llm-endpoint", "", "LLM endpoint URL for self-hosted backends")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	if err := applyVerifyFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := applyProviderEnv(&cfg); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Aletheia Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", batchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Reading statements from file...\n")
	statements, err := worker.ReadStatementsFromFile(file)
	if err != nil {
		return fmt.Errorf("read statements: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Loaded %d statements\n", len(statements))
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "⚙️  Verifying statements with %d workers...\n", batchWorkers)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(p, batchWorkers)
	results := processor.ProcessTexts(ctx, statements)

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	successCount := 0
	failureCount := 0

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", clipText(result.Text, 60), result.Error)
			continue
		}

		successCount++

		// Generate output file names
		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.Report.Subject))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", slug, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", slug, err)
			continue
		}

		fmt.Fprintf(os.Stderr, "✓ %s (%d claims)\n", clipText(result.Report.Subject, 60), len(result.Report.Claims))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d statements\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename reduces a subject line to a filesystem-safe slug.
// Letters and digits are kept lowercased, everything else collapses
// into single dashes.
func sanitizeFilename(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if runes := []rune(slug); len(runes) > 60 {
		slug = strings.Trim(string(runes[:60]), "-")
	}
	if slug == "" {
		return "report"
	}
	return slug
}
