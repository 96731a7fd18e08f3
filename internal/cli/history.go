package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/aletheia/internal/history"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyLimit  int
	historyOffset int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past verification runs",
	Long: `Browse the verification history Aletheia records after each run.

History lives in a single JSON file (default: ~/.aletheia/history.json)
and keeps the most recent runs up to the configured limit.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent verification runs",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one verification run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a verification run from history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of runs to skip")
}

// openHistory opens the history store for the history commands
func openHistory(cfg model.Config, logger *zap.Logger) (*history.Store, error) {
	cfg.History.Path = expandHome(cfg.History.Path)
	store, err := history.NewStore(cfg.History, logger)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}

	entries, total := store.List(historyLimit, historyOffset)
	if total == 0 {
		fmt.Println("History is empty")
		return nil
	}

	fmt.Printf("%-12s %-16s %-7s %-6s %s\n", "ID", "WHEN", "MODE", "CLAIMS", "SUBJECT")
	for _, entry := range entries {
		fmt.Printf("%-12s %-16s %-7s %-6d %s\n",
			entry.ID, entry.CreatedAt.Format("2006-01-02 15:04"), entry.Mode,
			entry.ClaimCount, clipText(entry.Subject, 60))
	}
	fmt.Printf("\nShowing %d of %d runs\n", len(entries), total)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}

	entry, err := store.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", entry.ID)
	fmt.Printf("When:      %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Subject:   %s\n", entry.Subject)
	if entry.Category != "" {
		fmt.Printf("Category:  %s\n", entry.Category)
	}
	fmt.Printf("Mode:      %s\n", entry.Mode)
	fmt.Printf("Claims:    %d\n", entry.ClaimCount)
	if len(entry.Verdicts) > 0 {
		fmt.Printf("Verdicts:  %s\n", formatVerdicts(entry.Verdicts))
	}
	fmt.Printf("Elapsed:   %.1fs\n", float64(entry.ElapsedMS)/1000)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id := args[0]

	cfg := loadConfig()
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}

	if err := store.Delete(id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	fmt.Printf("✓ Deleted %s\n", id)
	return nil
}

// formatVerdicts renders verdict counts sorted by name for stable output
func formatVerdicts(verdicts map[string]int) string {
	names := make([]string, 0, len(verdicts))
	for name := range verdicts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d %s", verdicts[name], name))
	}
	return strings.Join(parts, ", ")
}
