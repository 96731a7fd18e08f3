package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/model"
)

// DocumentMeta describes a stored document
type DocumentMeta struct {
	Title   string    `json:"title"`
	Source  string    `json:"source"` // "text", "file" or "web"
	URL     string    `json:"url,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Document is a stored document with its chunk texts in order
type Document struct {
	ID       string       `json:"id"`
	Metadata DocumentMeta `json:"metadata"`
	Chunks   []string     `json:"chunks"`
}

// DocumentInfo summarizes a document for listings
type DocumentInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	Tags       []string  `json:"tags,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	ChunkCount int       `json:"chunk_count"`
}

// Chunk is one searchable piece of a document. Distance is set on search
// results; lower means closer to the query.
type Chunk struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Metadata    DocumentMeta `json:"metadata"`
	ChunkIndex  int          `json:"chunk_index"`
	TotalChunks int          `json:"total_chunks"`
	Distance    float64      `json:"distance"`
}

// Store is a file-backed knowledge base. Documents are chunked on add and
// retrieved by keyword overlap. The whole store lives in one JSON file
// rewritten atomically on every mutation.
type Store struct {
	path      string
	chunkSize int
	overlap   int
	topK      int
	logger    *zap.Logger

	mu        sync.RWMutex
	documents []Document
}

type storeFile struct {
	Documents []Document `json:"documents"`
}

// NewStore opens or creates a knowledge store at cfg.Path
func NewStore(cfg model.KBConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	overlap := cfg.ChunkOverlap
	if overlap <= 0 {
		overlap = defaultChunkOverlap
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	s := &Store{
		path:      cfg.Path,
		chunkSize: chunkSize,
		overlap:   overlap,
		topK:      topK,
		logger:    logger,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// AddDocument chunks text and stores it under a fresh document id. Text
// shorter than minDocumentLength characters is rejected.
func (s *Store) AddDocument(text string, meta DocumentMeta) (string, error) {
	if len(strings.TrimSpace(text)) < minDocumentLength {
		return "", fmt.Errorf("document text too short (minimum %d characters)", minDocumentLength)
	}

	chunks := chunkText(text, s.chunkSize, s.overlap)
	if len(chunks) == 0 {
		return "", fmt.Errorf("document produced no chunks")
	}

	if meta.AddedAt.IsZero() {
		meta.AddedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docID := s.nextDocID()
	s.documents = append(s.documents, Document{
		ID:       docID,
		Metadata: meta,
		Chunks:   chunks,
	})

	if err := s.persist(); err != nil {
		// Keep memory consistent with disk
		s.documents = s.documents[:len(s.documents)-1]
		return "", err
	}

	s.logger.Debug("document added",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)))

	return docID, nil
}

// DeleteDocument removes a document and persists the change
func (s *Store) DeleteDocument(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range s.documents {
		if doc.ID == docID {
			s.documents = append(s.documents[:i], s.documents[i+1:]...)
			return s.persist()
		}
	}

	return fmt.Errorf("document not found: %s", docID)
}

// ListDocuments returns summary information for every stored document
func (s *Store) ListDocuments() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]DocumentInfo, 0, len(s.documents))
	for _, doc := range s.documents {
		infos = append(infos, DocumentInfo{
			ID:         doc.ID,
			Title:      doc.Metadata.Title,
			Source:     doc.Metadata.Source,
			Tags:       doc.Metadata.Tags,
			AddedAt:    doc.Metadata.AddedAt,
			ChunkCount: len(doc.Chunks),
		})
	}

	return infos
}

// DocumentText returns the full text of a document with chunks joined by
// a single space, or "" when the document does not exist
func (s *Store) DocumentText(docID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := s.findDocument(docID)
	if doc == nil {
		return ""
	}

	return strings.Join(doc.Chunks, " ")
}

// Count returns the number of stored documents
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// nextDocID derives a fresh id from the total chunk count, skipping ids
// still in use after deletions. Callers hold the lock.
func (s *Store) nextDocID() string {
	n := 0
	for _, doc := range s.documents {
		n += len(doc.Chunks)
	}

	id := fmt.Sprintf("doc_%d", n)
	for s.findDocument(id) != nil {
		n++
		id = fmt.Sprintf("doc_%d", n)
	}

	return id
}

// findDocument returns the document with the given id, or nil. Callers
// hold the lock.
func (s *Store) findDocument(docID string) *Document {
	for i := range s.documents {
		if s.documents[i].ID == docID {
			return &s.documents[i]
		}
	}
	return nil
}

// load reads the store file; a missing file means an empty store
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse store: %w", err)
	}

	s.documents = file.Documents
	return nil
}

// persist rewrites the store file atomically. Callers hold the lock.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(storeFile{Documents: s.documents}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}

	return nil
}
