package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/aletheia/internal/model"
)

// Verifier runs the verification pipeline over one input text
type Verifier interface {
	Verify(ctx context.Context, text string) (*model.Report, error)
}

// VerifyJob verifies one statement
type VerifyJob struct {
	Text     string
	Verifier Verifier
}

// Execute runs the verification
func (j *VerifyJob) Execute(ctx context.Context) Result {
	report, err := j.Verifier.Verify(ctx, j.Text)
	if err != nil {
		return &VerifyResult{Text: j.Text, Error: err}
	}
	return &VerifyResult{Text: j.Text, Report: report}
}

// VerifyResult pairs a statement with its verification outcome
type VerifyResult struct {
	Text   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the verification, if any
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple statements concurrently while
// keeping results in input order
type BatchProcessor struct {
	verifier Verifier
	workers  int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, workers int) *BatchProcessor {
	return &BatchProcessor{
		verifier: verifier,
		workers:  workers,
	}
}

// ProcessTexts verifies statements concurrently. Results line up with
// the input slice.
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string) []*VerifyResult {
	if len(texts) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.workers)
	pool.Start()

	for _, text := range texts {
		pool.Submit(&VerifyJob{Text: text, Verifier: b.verifier})
	}

	results := pool.Wait()

	out := make([]*VerifyResult, len(texts))
	for i := range texts {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*VerifyResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &VerifyResult{Text: texts[i], Error: err}
	}

	return out
}

// ProcessFile reads statements from a file and verifies them
// concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*VerifyResult, error) {
	texts, err := ReadStatementsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}

	return b.ProcessTexts(ctx, texts), nil
}

// ReadStatementsFromFile reads statements from a file, one per line.
// Blank lines and # comments are skipped; duplicate statements are
// dropped while input order is preserved.
func ReadStatementsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var texts []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			texts = append(texts, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return texts, nil
}
