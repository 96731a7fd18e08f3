// Package pipeline wires claim extraction, evidence gathering and
// verification into one verification run per input text.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/category"
	"github.com/ppiankov/aletheia/internal/credibility"
	"github.com/ppiankov/aletheia/internal/debate"
	"github.com/ppiankov/aletheia/internal/extract"
	"github.com/ppiankov/aletheia/internal/history"
	"github.com/ppiankov/aletheia/internal/kb"
	"github.com/ppiankov/aletheia/internal/llm"
	"github.com/ppiankov/aletheia/internal/model"
	"github.com/ppiankov/aletheia/internal/search"
	"github.com/ppiankov/aletheia/internal/verdict"
	"github.com/ppiankov/aletheia/internal/verify"
	"github.com/ppiankov/aletheia/internal/worker"
)

// maxEvidenceEcho caps how many evidence items a claim result carries
// back to the caller; the full set still counts into EvidenceCount.
const maxEvidenceEcho = 3

// Searcher is the web-search collaborator
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Result, error)
}

// Deps are the pipeline's collaborators. Nil fields disable the
// corresponding stage: a nil Searcher skips web evidence, a nil
// Retriever skips knowledge-base evidence, a nil History skips run
// recording.
type Deps struct {
	Generator llm.Generator
	Searcher  Searcher
	Retriever kb.Retriever
	Debate    *debate.Client
	History   *history.Store
}

// Pipeline orchestrates the complete verification of one input text
type Pipeline struct {
	extractor *extract.Extractor
	engine    *verify.Engine
	scorer    *credibility.Scorer
	detector  *category.Detector
	generator llm.Generator
	searcher  Searcher
	retriever kb.Retriever
	debate    *debate.Client
	history   *history.Store

	webTopK   int
	kbTopK    int
	workers   int
	maxClaims int
	logger    *zap.Logger
}

// NewPipeline creates a pipeline from configuration and collaborators.
// Without a generator the pipeline still works: extraction runs on the
// structural and fallback strategies and verification is rule-based.
func NewPipeline(cfg model.Config, deps Deps, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	var contextSource extract.ContextSource
	if deps.Retriever != nil {
		contextSource = passageSource{retriever: deps.Retriever}
	}

	strategies := []extract.Strategy{extract.NewStructuralStrategy()}
	if deps.Generator != nil {
		strategies = append(strategies, extract.NewGenerativeStrategy(deps.Generator, contextSource, logger))
	}
	strategies = append(strategies, extract.NewFallbackStrategy())

	extractor := extract.NewExtractor(logger, strategies...)

	webTopK := cfg.Search.MaxResults
	if webTopK <= 0 {
		webTopK = 5
	}

	kbTopK := cfg.KB.TopK
	if kbTopK <= 0 {
		kbTopK = 5
	}

	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pipeline{
		extractor: extractor,
		engine:    verify.NewEngine(deps.Generator, cfg.LLM.Timeout, logger),
		scorer:    credibility.NewScorer(),
		detector:  category.NewDetector(),
		generator: deps.Generator,
		searcher:  deps.Searcher,
		retriever: deps.Retriever,
		debate:    deps.Debate,
		history:   deps.History,
		webTopK:   webTopK,
		kbTopK:    kbTopK,
		workers:   workers,
		maxClaims: cfg.Concurrency.MaxClaims,
		logger:    logger,
	}
}

// Verify runs the full pipeline over one input text: extract claims,
// gather evidence per claim, verify each claim and assemble the report.
// It never fails out of claim verification; the error return exists for
// the batch verifier contract and is nil today.
func (p *Pipeline) Verify(ctx context.Context, text string) (*model.Report, error) {
	started := time.Now()

	claims := p.extractor.Extract(ctx, text)
	if p.maxClaims > 0 && len(claims) > p.maxClaims {
		p.logger.Debug("claim cap applied",
			zap.Int("extracted", len(claims)),
			zap.Int("cap", p.maxClaims))
		claims = claims[:p.maxClaims]
	}

	mode := "single"
	if p.debate != nil && p.debate.Enabled() {
		mode = "debate"
	}

	report := &model.Report{
		Subject:    model.SubjectFromText(text),
		Category:   p.detector.DetectWithGenerator(ctx, p.generator, text),
		Mode:       mode,
		AnalyzedAt: time.Now().UTC(),
		Claims:     []model.ClaimResult{},
	}

	if len(claims) == 0 {
		report.ElapsedMS = time.Since(started).Milliseconds()
		return report, nil
	}

	results, urls := p.verifyClaims(ctx, claims)
	report.Claims = results
	report.Credibility = p.scorer.AnalyzeAll(urls)
	report.ElapsedMS = time.Since(started).Milliseconds()

	p.logger.Info("verification complete",
		zap.Int("claims", len(report.Claims)),
		zap.String("category", report.Category),
		zap.Int64("elapsed_ms", report.ElapsedMS))

	p.recordHistory(report)

	return report, nil
}

// verifyClaims verifies every claim, concurrently when more than one
// worker is configured. Results always come back in claim order, along
// with the deduplicated evidence URLs seen across all claims.
func (p *Pipeline) verifyClaims(ctx context.Context, claims []model.Claim) ([]model.ClaimResult, []string) {
	collector := newURLCollector()

	if p.workers <= 1 || len(claims) == 1 {
		out := make([]model.ClaimResult, 0, len(claims))
		for _, claim := range claims {
			if ctx.Err() != nil {
				out = append(out, cancelledResult(claim))
				continue
			}
			result, urls := p.verifyClaim(ctx, claim)
			collector.add(urls)
			out = append(out, result)
		}
		return out, collector.urls
	}

	pool := worker.NewPool(ctx, p.workers)
	pool.Start()
	for _, claim := range claims {
		pool.Submit(&claimJob{pipeline: p, claim: claim})
	}
	results := pool.Wait()

	out := make([]model.ClaimResult, len(claims))
	for i, claim := range claims {
		if i < len(results) && results[i] != nil {
			outcome := results[i].(*claimJobResult)
			out[i] = outcome.result
			collector.add(outcome.urls)
			continue
		}
		out[i] = cancelledResult(claim)
	}
	return out, collector.urls
}

// verifyClaim gathers evidence for one claim and produces its result
// row plus the evidence URLs it consulted
func (p *Pipeline) verifyClaim(ctx context.Context, claim model.Claim) (model.ClaimResult, []string) {
	evidence := p.gatherEvidence(ctx, claim.Text)

	var urls []string
	for _, ev := range evidence {
		if ev.URL != "" {
			urls = append(urls, ev.URL)
		}
	}

	sourceCredibility := 0.5
	if len(urls) > 0 {
		sourceCredibility = p.scorer.AnalyzeAll(urls).AverageTrustScore
	}

	var outcome model.VerificationResult
	if p.debate != nil && p.debate.Enabled() {
		outcome = p.debateVerdict(ctx, claim.Text, evidence)
	} else {
		outcome = p.engine.Verify(ctx, claim.Text, evidence)
	}

	p.logger.Debug("claim verified",
		zap.Int("id", claim.ID),
		zap.String("verdict", string(outcome.Verdict)),
		zap.Int("evidence", len(evidence)))

	echo := evidence
	if len(echo) > maxEvidenceEcho {
		echo = echo[:maxEvidenceEcho]
	}

	return model.ClaimResult{
		ID:                claim.ID,
		Text:              claim.Text,
		Method:            claim.Method,
		Verdict:           outcome.Verdict,
		Confidence:        outcome.Confidence,
		Explanation:       outcome.Explanation,
		Citations:         outcome.Citations,
		EvidenceCount:     len(evidence),
		SourceCredibility: sourceCredibility,
		Evidence:          echo,
	}, urls
}

// gatherEvidence collects web and knowledge-base evidence for a claim.
// Collaborator failures are logged and contribute nothing.
func (p *Pipeline) gatherEvidence(ctx context.Context, claim string) []model.Evidence {
	evidence := []model.Evidence{}

	if p.searcher != nil {
		results, err := p.searcher.Search(ctx, claim, p.webTopK)
		if err != nil {
			p.logger.Warn("web search failed", zap.Error(err))
		}
		for _, r := range results {
			evidence = append(evidence, model.Evidence{
				Title:   r.Title,
				URL:     r.URL,
				Snippet: r.Snippet,
				Source:  r.Source,
				Type:    model.EvidenceTypeWeb,
			})
		}
	}

	if p.retriever != nil {
		for _, chunk := range p.retriever.Search(ctx, claim, p.kbTopK) {
			title := chunk.Metadata.Title
			if title == "" {
				title = "KB Document"
			}
			source := chunk.Metadata.Source
			if source == "" {
				source = "Knowledge Base"
			}
			evidence = append(evidence, model.Evidence{
				Title:  title,
				Text:   chunk.Text,
				Source: source,
				Type:   model.EvidenceTypeKB,
			})
		}
	}

	return evidence
}

// debateVerdict runs debate-based verification. When the service hands
// back individual agent responses they are re-aggregated locally, which
// keeps the tie-break deterministic; otherwise the service's own
// roll-up is normalized and used.
func (p *Pipeline) debateVerdict(ctx context.Context, claim string, evidence []model.Evidence) model.VerificationResult {
	res := p.debate.Debate(ctx, claim, evidence)

	if len(res.AgentResponses) > 0 {
		agg := verdict.Aggregate(res.AgentResponses)
		return model.VerificationResult{
			Verdict:     agg.Verdict,
			Confidence:  model.Clamp01(agg.Confidence),
			Explanation: agg.Explanation,
			Citations:   []string{},
		}
	}

	return model.VerificationResult{
		Verdict:     verdict.Normalize(res.Verdict),
		Confidence:  model.Clamp01(res.Confidence),
		Explanation: res.Explanation,
		Citations:   []string{},
	}
}

// recordHistory records the run, best effort
func (p *Pipeline) recordHistory(report *model.Report) {
	if p.history == nil {
		return
	}
	if _, err := p.history.Add(*report); err != nil {
		p.logger.Warn("history record failed", zap.Error(err))
	}
}

func cancelledResult(claim model.Claim) model.ClaimResult {
	return model.ClaimResult{
		ID:                claim.ID,
		Text:              claim.Text,
		Method:            claim.Method,
		Verdict:           model.VerdictUnverified,
		Confidence:        0,
		Explanation:       "Verification cancelled before completion",
		Citations:         []string{},
		SourceCredibility: 0.5,
		Evidence:          []model.Evidence{},
	}
}

// urlCollector accumulates evidence URLs, dropping duplicates
type urlCollector struct {
	seen map[string]bool
	urls []string
}

func newURLCollector() *urlCollector {
	return &urlCollector{seen: make(map[string]bool)}
}

func (c *urlCollector) add(urls []string) {
	for _, u := range urls {
		if c.seen[u] {
			continue
		}
		c.seen[u] = true
		c.urls = append(c.urls, u)
	}
}

// claimJob adapts one claim verification to the worker pool
type claimJob struct {
	pipeline *Pipeline
	claim    model.Claim
}

func (j *claimJob) Execute(ctx context.Context) worker.Result {
	result, urls := j.pipeline.verifyClaim(ctx, j.claim)
	return &claimJobResult{result: result, urls: urls}
}

type claimJobResult struct {
	result model.ClaimResult
	urls   []string
}

func (r *claimJobResult) GetError() error {
	return nil
}

// passageSource adapts the knowledge retriever to the extractor's
// context interface
type passageSource struct {
	retriever kb.Retriever
}

func (s passageSource) Passages(ctx context.Context, query string, limit int) ([]extract.ContextPassage, error) {
	chunks := s.retriever.Search(ctx, query, limit)
	passages := make([]extract.ContextPassage, 0, len(chunks))
	for _, chunk := range chunks {
		passages = append(passages, extract.ContextPassage{
			Text:  chunk.Text,
			Title: chunk.Metadata.Title,
		})
	}
	return passages, nil
}
