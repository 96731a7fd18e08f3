package kb

import "strings"

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
	defaultTopK         = 5
	minDocumentLength   = 50
)

// chunkText splits text into chunks of at most chunkSize characters.
// Paragraphs that fit stay whole; oversized paragraphs are packed
// sentence by sentence, carrying a short tail between chunks so context
// does not cut off mid-thought.
func chunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= chunkSize {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, packSentences(strings.Split(para, ". "), chunkSize, overlap)...)
	}

	return chunks
}

// packSentences greedily fills chunks up to chunkSize characters
func packSentences(sentences []string, chunkSize, overlap int) []string {
	var chunks []string
	current := ""
	pending := false

	for _, sentence := range sentences {
		if current != "" && len(current)+len(sentence) > chunkSize {
			chunks = append(chunks, strings.TrimSpace(current))
			current = overlapTail(current, overlap)
			pending = false
		}
		current += sentence + ". "
		pending = true
	}

	if pending && strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// overlapTail returns whole trailing sentences of a chunk fitting within
// overlap characters
func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 {
		return ""
	}

	sentences := strings.Split(strings.TrimSpace(chunk), ". ")
	tail := ""
	for i := len(sentences) - 1; i >= 0; i-- {
		candidate := strings.TrimSuffix(sentences[i], ".") + ". "
		if len(tail)+len(candidate) > overlap {
			break
		}
		tail = candidate + tail
	}

	return tail
}
