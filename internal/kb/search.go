package kb

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Retriever is implemented by knowledge sources the pipeline can query
type Retriever interface {
	Search(ctx context.Context, query string, topK int) []Chunk
}

// Search returns the topK chunks closest to the query by keyword overlap.
// Distance is 1 - (matched query terms / total query terms), so a chunk
// containing every term scores 0. Chunks sharing no terms with the query
// are omitted; empty queries return nothing.
func (s *Store) Search(ctx context.Context, query string, topK int) []Chunk {
	if ctx.Err() != nil {
		return nil
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	if topK <= 0 {
		topK = s.topK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Chunk
	for _, doc := range s.documents {
		for idx, text := range doc.Chunks {
			distance, ok := chunkDistance(terms, text)
			if !ok {
				continue
			}
			matches = append(matches, Chunk{
				ID:          fmt.Sprintf("%s_chunk_%d", doc.ID, idx),
				Text:        text,
				Metadata:    doc.Metadata,
				ChunkIndex:  idx,
				TotalChunks: len(doc.Chunks),
				Distance:    distance,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches
}

// queryTerms lowercases and splits a query, keeping terms over two chars
func queryTerms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		field = strings.Trim(field, ".,;:!?\"'()")
		if len(field) > 2 {
			terms = append(terms, field)
		}
	}
	return terms
}

// chunkDistance scores a chunk against query terms; ok is false when no
// term appears in the chunk
func chunkDistance(terms []string, text string) (float64, bool) {
	lower := strings.ToLower(text)

	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}

	if matched == 0 {
		return 0, false
	}

	return 1 - float64(matched)/float64(len(terms)), true
}
