package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/aletheia/internal/model"
)

func sampleRenderReport() *model.Report {
	return &model.Report{
		Subject:    "The moon causes ocean tides.",
		Category:   "science",
		Mode:       "single",
		AnalyzedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Claims: []model.ClaimResult{
			{
				ID:                1,
				Text:              "The moon causes ocean tides.",
				Method:            model.MethodStructural,
				Verdict:           model.VerdictTrue,
				Confidence:        0.9,
				Explanation:       "Well supported by tidal physics.",
				Citations:         []string{"https://nasa.gov/tides"},
				EvidenceCount:     3,
				SourceCredibility: 0.55,
				Evidence: []model.Evidence{
					{Title: "Tides", URL: "https://nasa.gov/tides", Snippet: "Lunar gravity drives the tides.", Source: "nasa.gov", Type: model.EvidenceTypeWeb},
					{Title: "KB Document", Text: "Tidal forces arise from lunar gravity.", Source: "Knowledge Base", Type: model.EvidenceTypeKB},
				},
			},
			{
				ID:                2,
				Text:              "The moon is made of cheese.",
				Method:            model.MethodStructural,
				Verdict:           model.VerdictFalse,
				Confidence:        0.95,
				Explanation:       "Contradicted by every lunar sample ever analyzed.",
				EvidenceCount:     1,
				SourceCredibility: 0.6,
			},
		},
		Credibility: model.CredibilitySummary{
			AverageTrustScore: 0.55,
			SourceCount:       2,
		},
		ElapsedMS: 1200,
	}
}

func TestRenderer_Markdown_Sections(t *testing.T) {
	md := NewRenderer(true).Markdown(sampleRenderReport())

	for _, want := range []string{
		"# Verification Report",
		"**Subject:** The moon causes ocean tides.",
		"**Category:** science",
		"**Mode:** single",
		"**Analyzed:** 2025-03-14 09:30:00 UTC",
		"**Claims:** 2",
		"## Source Credibility",
		"| Average trust score | 0.55 |",
		"| Sources | 2 |",
		"## Claims",
		"### 1. The moon causes ocean tides.",
		"**Verdict:** true (confidence 0.90)",
		"Well supported by tidal physics.",
		"Evidence reviewed: 3, average source trust 0.55",
		"**Citations:**",
		"1. https://nasa.gov/tides",
		"**Top evidence:**",
		"- [Tides](https://nasa.gov/tides) (web): Lunar gravity drives the tides.",
		"- KB Document (kb): Tidal forces arise from lunar gravity.",
		"### 2. The moon is made of cheese.",
		"**Verdict:** false (confidence 0.95)",
		"*Generated by aletheia*",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderer_Markdown_NoFooter(t *testing.T) {
	md := NewRenderer(false).Markdown(sampleRenderReport())
	if strings.Contains(md, "Generated by aletheia") {
		t.Errorf("footer should be absent when disabled")
	}
}

func TestRenderer_Markdown_OmitsEmptySections(t *testing.T) {
	report := &model.Report{
		Subject:    "Nothing to check here today.",
		Mode:       "single",
		AnalyzedAt: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	md := NewRenderer(true).Markdown(report)

	for _, unwanted := range []string{"**Category:**", "## Source Credibility", "## Claims"} {
		if strings.Contains(md, unwanted) {
			t.Errorf("markdown should omit %q for an empty report", unwanted)
		}
	}
	if !strings.Contains(md, "**Claims:** 0") {
		t.Errorf("markdown should still state the claim count")
	}
}

func TestRenderer_RenderJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := sampleRenderReport()

	if err := NewRenderer(true).RenderJSON(report, path); err != nil {
		t.Fatalf("RenderJSON returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered report: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Errorf("rendered JSON should end with a newline")
	}

	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("rendered JSON does not decode: %v", err)
	}
	if decoded.Subject != report.Subject {
		t.Errorf("subject round-trip: got %q", decoded.Subject)
	}
	if len(decoded.Claims) != 2 {
		t.Fatalf("expected 2 claims after round-trip, got %d", len(decoded.Claims))
	}
	if decoded.Claims[0].Verdict != model.VerdictTrue {
		t.Errorf("verdict round-trip: got %q", decoded.Claims[0].Verdict)
	}
	if decoded.Credibility.SourceCount != 2 {
		t.Errorf("credibility round-trip: got %d sources", decoded.Credibility.SourceCount)
	}
}

func TestRenderer_RenderMarkdown_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")

	if err := NewRenderer(true).RenderMarkdown(sampleRenderReport(), path); err != nil {
		t.Fatalf("RenderMarkdown returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered report: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Verification Report") {
		t.Errorf("markdown file should start with the report heading")
	}
}

func TestRenderer_WriteSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(true).WriteSummary(&buf, sampleRenderReport())
	out := buf.String()

	for _, want := range []string{
		"Verification Report",
		"Subject:   The moon causes ocean tides.",
		"Category:  science",
		"Mode:      single",
		"Claims:    2",
		"Elapsed:   1.2s",
		"[1] TRUE",
		"(0.90)  The moon causes ocean tides.",
		"[2] FALSE",
		"Well supported by tidal physics.",
		"Verdicts: 1 true, 1 false",
		"Sources:  2, average trust 0.55",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestVerdictLine_FixedOrderSkipsZeros(t *testing.T) {
	report := &model.Report{Claims: []model.ClaimResult{
		{Verdict: model.VerdictUnverified},
		{Verdict: model.VerdictTrue},
		{Verdict: model.VerdictTrue},
	}}

	if got := verdictLine(report); got != "2 true, 1 unverified" {
		t.Errorf("verdictLine = %q, want %q", got, "2 true, 1 unverified")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short text", 80); got != "short text" {
		t.Errorf("clip should leave short text alone, got %q", got)
	}

	long := strings.Repeat("evidence ", 40)
	clipped := clip(long, 200)
	if !strings.HasSuffix(clipped, "...") {
		t.Errorf("clipped text should end with an ellipsis, got %q", clipped)
	}
	if n := len([]rune(clipped)); n > 203 {
		t.Errorf("clipped text too long: %d runes", n)
	}
}
