package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// Renderer writes verification reports as JSON files, Markdown files
// and terminal summaries.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer. The footer marks generated Markdown
// files and can be switched off.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report to path as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

// RenderMarkdown writes the report to path as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Markdown renders the full report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Verification Report\n\n")
	fmt.Fprintf(&b, "**Subject:** %s\n\n", report.Subject)
	if report.Category != "" {
		fmt.Fprintf(&b, "**Category:** %s\n\n", report.Category)
	}
	fmt.Fprintf(&b, "**Mode:** %s\n\n", report.Mode)
	fmt.Fprintf(&b, "**Analyzed:** %s\n\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**Claims:** %d\n\n", len(report.Claims))

	if report.Credibility.SourceCount > 0 {
		b.WriteString("## Source Credibility\n\n")
		fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Average trust score | %.2f |\n", report.Credibility.AverageTrustScore)
		fmt.Fprintf(&b, "| Sources | %d |\n", report.Credibility.SourceCount)
		fmt.Fprintf(&b, "| Fact-checkers | %d |\n", report.Credibility.FactCheckerSources)
		fmt.Fprintf(&b, "| Academic | %d |\n", report.Credibility.AcademicSources)
		fmt.Fprintf(&b, "| Unreliable | %d |\n\n", report.Credibility.UnreliableSources)
	}

	if len(report.Claims) > 0 {
		b.WriteString("## Claims\n\n")
	}
	for _, claim := range report.Claims {
		fmt.Fprintf(&b, "### %d. %s\n\n", claim.ID, claim.Text)
		fmt.Fprintf(&b, "**Verdict:** %s (confidence %.2f)\n\n", claim.Verdict, claim.Confidence)
		if claim.Explanation != "" {
			fmt.Fprintf(&b, "%s\n\n", claim.Explanation)
		}
		fmt.Fprintf(&b, "Evidence reviewed: %d, average source trust %.2f\n\n",
			claim.EvidenceCount, claim.SourceCredibility)

		if len(claim.Citations) > 0 {
			b.WriteString("**Citations:**\n\n")
			for i, citation := range claim.Citations {
				fmt.Fprintf(&b, "%d. %s\n", i+1, citation)
			}
			b.WriteString("\n")
		}

		if len(claim.Evidence) > 0 {
			b.WriteString("**Top evidence:**\n\n")
			for _, ev := range claim.Evidence {
				if ev.URL != "" {
					fmt.Fprintf(&b, "- [%s](%s) (%s): %s\n", ev.Title, ev.URL, ev.Type, clip(ev.Passage(), 200))
				} else {
					fmt.Fprintf(&b, "- %s (%s): %s\n", ev.Title, ev.Type, clip(ev.Passage(), 200))
				}
			}
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n*Generated by aletheia*\n")
	}

	return b.String()
}

// WriteSummary prints a terminal summary of the report
func (r *Renderer) WriteSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", banner)
	fmt.Fprintf(w, "  Verification Report\n")
	fmt.Fprintf(w, "%s\n\n", banner)

	fmt.Fprintf(w, "  Subject:   %s\n", report.Subject)
	if report.Category != "" {
		fmt.Fprintf(w, "  Category:  %s\n", report.Category)
	}
	fmt.Fprintf(w, "  Mode:      %s\n", report.Mode)
	fmt.Fprintf(w, "  Claims:    %d\n", len(report.Claims))
	fmt.Fprintf(w, "  Elapsed:   %.1fs\n\n", float64(report.ElapsedMS)/1000)

	for _, claim := range report.Claims {
		fmt.Fprintf(w, "  [%d] %-10s (%.2f)  %s\n",
			claim.ID, strings.ToUpper(string(claim.Verdict)), claim.Confidence, clip(claim.Text, 80))
		if claim.Explanation != "" {
			fmt.Fprintf(w, "      %s\n", clip(claim.Explanation, 120))
		}
	}

	if len(report.Claims) > 0 {
		fmt.Fprintf(w, "\n  Verdicts: %s\n", verdictLine(report))
	}
	if report.Credibility.SourceCount > 0 {
		fmt.Fprintf(w, "  Sources:  %d, average trust %.2f\n",
			report.Credibility.SourceCount, report.Credibility.AverageTrustScore)
	}
	fmt.Fprintln(w)
}

// verdictLine formats verdict counts in a fixed order, skipping zeros
func verdictLine(report *model.Report) string {
	counts := report.VerdictCounts()
	order := []model.Verdict{model.VerdictTrue, model.VerdictFalse, model.VerdictMisleading, model.VerdictUnverified}

	var parts []string
	for _, v := range order {
		if counts[v] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[v], v))
		}
	}
	return strings.Join(parts, ", ")
}

// clip truncates s to limit runes with a trailing ellipsis
func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
