package model

// Evidence is one passage of supporting material gathered for a claim.
// Web results carry Snippet; knowledge-store chunks carry Text. Consumers
// that need prose use Snippet when set and fall back to Text.
type Evidence struct {
	Title   string       `json:"title"`
	URL     string       `json:"url,omitempty"`
	Snippet string       `json:"snippet,omitempty"` // Short excerpt from a web result
	Text    string       `json:"text,omitempty"`    // Full chunk text from the knowledge store
	Source  string       `json:"source"`            // Provider label, e.g. "duckduckgo" or "Knowledge Base"
	Type    EvidenceType `json:"type"`
}

// EvidenceType classifies where a piece of evidence came from
type EvidenceType string

const (
	EvidenceTypeWeb EvidenceType = "web" // Web search result
	EvidenceTypeKB  EvidenceType = "kb"  // Knowledge store chunk
)

// Passage returns the prose content of the evidence: the snippet for web
// results, the chunk text otherwise.
func (e Evidence) Passage() string {
	if e.Snippet != "" {
		return e.Snippet
	}
	return e.Text
}

// CredibilityReport classifies a single source URL. It is stateless and
// recomputed on every call; a parse failure yields a neutral report with
// Err set rather than an error return.
type CredibilityReport struct {
	Domain        string    `json:"domain"`
	URL           string    `json:"url"`
	TrustScore    float64   `json:"trust_score"` // Clamped to [0,1]
	IsFactChecker bool      `json:"is_fact_checker"`
	IsAcademic    bool      `json:"is_academic"`
	IsUnreliable  bool      `json:"is_unreliable"`
	DomainAge     DomainAge `json:"domain_age"`
	TLD           string    `json:"tld,omitempty"`
	Err           string    `json:"error,omitempty"`
}

// DomainAge is a coarse age signal inferred from the TLD alone
type DomainAge string

const (
	AgeEstablished       DomainAge = "established"        // .edu / .gov
	AgeLikelyEstablished DomainAge = "likely_established" // .org
	AgeUnknown           DomainAge = "unknown"
)

// CredibilitySummary aggregates the reports for all sources behind one claim
type CredibilitySummary struct {
	AverageTrustScore  float64             `json:"average_trust_score"`
	SourceCount        int                 `json:"source_count"`
	FactCheckerSources int                 `json:"fact_checker_sources"`
	AcademicSources    int                 `json:"academic_sources"`
	UnreliableSources  int                 `json:"unreliable_sources"`
	Sources            []CredibilityReport `json:"sources,omitempty"`
}
