package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/aletheia/internal/cache"
	"github.com/ppiankov/aletheia/internal/kb"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/search"
	"github.com/ppiankov/aletheia/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	kbFile         string
	kbURL          string
	kbTitle        string
	kbTags         []string
	kbTopK         int
	analyzeTimeout time.Duration
)

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the local knowledge base",
	Long: `Manage the documents Aletheia uses as a private evidence source.

Documents added here are chunked and searched alongside web results
during verification. The knowledge base lives in a single JSON file
(default: ~/.aletheia/kb.json).`,
}

var kbAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a document to the knowledge base",
	Long: `Add stores a document for evidence retrieval. The document body
comes from the argument, a file or a fetched web page.

Example:
  aletheia kb add "The mitochondria is the membrane-bound organelle..."
  aletheia kb add --file notes/apollo.txt --title "Apollo program"
  aletheia kb add --url https://example.org/article --tags space,history`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKBAdd,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE:  runKBList,
}

var kbSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long:  `Search returns the stored chunks closest to the query, with their match distance.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runKBSearch,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a document from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

var kbAnalyzeCmd = &cobra.Command{
	Use:   "analyze <doc-id>",
	Short: "Verify a stored document and assess its overall accuracy",
	Long: `Analyze runs the full verification pipeline over a stored document
and classifies its overall accuracy from the per-claim verdicts.

Example:
  aletheia kb analyze doc-3
  aletheia kb analyze doc-3 --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runKBAnalyze,
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbAddCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbSearchCmd)
	kbCmd.AddCommand(kbDeleteCmd)
	kbCmd.AddCommand(kbAnalyzeCmd)

	kbAddCmd.Flags().StringVar(&kbFile, "file", "", "read document text from file")
	kbAddCmd.Flags().StringVar(&kbURL, "url", "", "fetch document text from URL")
	kbAddCmd.Flags().StringVar(&kbTitle, "title", "", "document title")
	kbAddCmd.Flags().StringSliceVar(&kbTags, "tags", nil, "comma-separated document tags")

	kbSearchCmd.Flags().IntVar(&kbTopK, "top-k", 5, "number of chunks to return")

	kbAnalyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analysis timeout")
}

// openKB opens the knowledge base store regardless of whether the
// verification pipeline has it enabled; the kb commands are the
// knowledge base.
func openKB(cfg model.Config, logger *zap.Logger) (*kb.Store, error) {
	cfg.KB.Path = expandHome(cfg.KB.Path)
	store, err := kb.NewStore(cfg.KB, logger)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	return store, nil
}

func runKBAdd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	var (
		text   string
		source string
		title  = kbTitle
	)

	switch {
	case kbFile != "" && kbURL != "", kbFile != "" && len(args) > 0, kbURL != "" && len(args) > 0:
		return fmt.Errorf("provide the document as exactly one of: text argument, --file, --url")

	case kbFile != "":
		data, err := os.ReadFile(kbFile)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		text = string(data)
		source = "file"
		if title == "" {
			title = filepath.Base(kbFile)
		}

	case kbURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
		defer cancel()

		store := cache.New(cfg.Cache)
		limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
		fetcher := search.NewFetcher(cfg, store, limiter, logger)

		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching %s...\n", kbURL)
		}
		content, err := fetcher.FetchPageContent(ctx, kbURL)
		if err != nil {
			return fmt.Errorf("fetch url: %w", err)
		}
		text = content
		source = "web"
		if title == "" {
			title = kbURL
		}

	case len(args) > 0:
		text = args[0]
		source = "text"

	default:
		return fmt.Errorf("provide the document as a text argument, --file or --url")
	}

	store, err := openKB(cfg, logger)
	if err != nil {
		return err
	}

	docID, err := store.AddDocument(text, kb.DocumentMeta{
		Title:  title,
		Source: source,
		URL:    kbURL,
		Tags:   kbTags,
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	fmt.Printf("✓ Added document %s\n", docID)
	fmt.Printf("Knowledge base now holds %d documents\n", store.Count())
	return nil
}

func runKBList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openKB(cfg, logger)
	if err != nil {
		return err
	}

	docs := store.ListDocuments()
	if len(docs) == 0 {
		fmt.Println("Knowledge base is empty")
		return nil
	}

	fmt.Printf("%-10s %-40s %-6s %-7s %s\n", "ID", "TITLE", "SOURCE", "CHUNKS", "ADDED")
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%-10s %-40s %-6s %-7d %s\n",
			doc.ID, clipText(title, 40), doc.Source, doc.ChunkCount,
			doc.AddedAt.Format("2006-01-02"))
	}
	fmt.Printf("\nDocuments: %d\n", len(docs))
	return nil
}

func runKBSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openKB(cfg, logger)
	if err != nil {
		return err
	}

	chunks := store.Search(cmd.Context(), query, kbTopK)
	if len(chunks) == 0 {
		fmt.Println("No matching chunks")
		return nil
	}

	for i, chunk := range chunks {
		title := chunk.Metadata.Title
		if title == "" {
			title = chunk.ID
		}
		fmt.Printf("%d. %s (distance %.2f)\n", i+1, title, chunk.Distance)
		fmt.Printf("   %s\n", clipText(chunk.Text, 160))
	}
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	docID := args[0]

	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openKB(cfg, logger)
	if err != nil {
		return err
	}

	if err := store.DeleteDocument(docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	fmt.Printf("✓ Deleted %s\n", docID)
	return nil
}

func runKBAnalyze(cmd *cobra.Command, args []string) error {
	docID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg := loadConfig()
	if err := applyProviderEnv(&cfg); err != nil {
		return err
	}

	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openKB(cfg, logger)
	if err != nil {
		return err
	}

	doc := documentInfo(store, docID)
	text := store.DocumentText(docID)
	if text == "" {
		return fmt.Errorf("document not found: %s", docID)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing document: %s\n", docID)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", analyzeTimeout)
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	report, err := p.Verify(ctx, text)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	counts := report.VerdictCounts()
	total := len(report.Claims)
	pct := func(v model.Verdict) float64 {
		if total == 0 {
			return 0
		}
		return float64(counts[v]) / float64(total) * 100
	}

	truePct := pct(model.VerdictTrue)
	falsePct := pct(model.VerdictFalse)
	misleadingPct := pct(model.VerdictMisleading)
	unverifiedPct := pct(model.VerdictUnverified)

	var accuracy, assessment string
	switch {
	case total == 0:
		accuracy = "unknown"
		assessment = "No claims found in document"
	case truePct >= 70:
		accuracy = "mostly_accurate"
		assessment = fmt.Sprintf("Document is mostly accurate (%.1f%% true content)", truePct)
	case falsePct >= 50:
		accuracy = "mostly_false"
		assessment = fmt.Sprintf("Document contains significant false information (%.1f%% false content)", falsePct)
	case misleadingPct >= 40:
		accuracy = "misleading"
		assessment = fmt.Sprintf("Document contains misleading information (%.1f%% misleading content)", misleadingPct)
	case truePct >= 50:
		accuracy = "mixed"
		assessment = fmt.Sprintf("Document has mixed accuracy (%.1f%% true, %.1f%% false)", truePct, falsePct)
	default:
		accuracy = "unverified"
		assessment = fmt.Sprintf("Document content could not be fully verified (%.1f%% unverified)", unverifiedPct)
	}

	fmt.Printf("\n═══════════════════════════════════════════════════════════\n")
	fmt.Printf("  Document Analysis\n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n\n")

	title := docID
	if doc != nil && doc.Title != "" {
		title = doc.Title
	}
	fmt.Printf("  Document:    %s\n", title)
	fmt.Printf("  Claims:      %d\n\n", total)

	fmt.Printf("  True:        %d (%.1f%%)\n", counts[model.VerdictTrue], truePct)
	fmt.Printf("  False:       %d (%.1f%%)\n", counts[model.VerdictFalse], falsePct)
	fmt.Printf("  Misleading:  %d (%.1f%%)\n", counts[model.VerdictMisleading], misleadingPct)
	fmt.Printf("  Unverified:  %d (%.1f%%)\n\n", counts[model.VerdictUnverified], unverifiedPct)

	fmt.Printf("  Accuracy:    %s\n", accuracy)
	fmt.Printf("  %s\n\n", assessment)

	return nil
}

// documentInfo finds the listing entry for docID, or nil
func documentInfo(store *kb.Store, docID string) *kb.DocumentInfo {
	for _, doc := range store.ListDocuments() {
		if doc.ID == docID {
			return &doc
		}
	}
	return nil
}
