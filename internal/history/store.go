// Package history records past verification runs in a JSON file so they
// can be listed and inspected later.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/aletheia/internal/model"
)

const defaultMaxEntries = 1000

// Entry summarizes one verification run
type Entry struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Subject    string         `json:"subject"`
	Category   string         `json:"category,omitempty"`
	Mode       string         `json:"mode"`
	ClaimCount int            `json:"claim_count"`
	Verdicts   map[string]int `json:"verdicts"` // Verdict name to claim count
	ElapsedMS  int64          `json:"elapsed_ms"`
}

// NewEntry builds a history entry from a report under a fresh id
func NewEntry(report model.Report) Entry {
	verdicts := make(map[string]int)
	for v, n := range report.VerdictCounts() {
		verdicts[string(v)] = n
	}

	createdAt := report.AnalyzedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return Entry{
		ID:         uuid.NewString(),
		CreatedAt:  createdAt,
		Subject:    report.Subject,
		Category:   report.Category,
		Mode:       report.Mode,
		ClaimCount: len(report.Claims),
		Verdicts:   verdicts,
		ElapsedMS:  report.ElapsedMS,
	}
}

// Store keeps verification run summaries in one JSON file rewritten
// atomically on every mutation. The oldest entries are dropped once the
// file holds maxEntries runs.
type Store struct {
	path       string
	maxEntries int
	logger     *zap.Logger

	mu      sync.RWMutex
	entries []Entry
}

type storeFile struct {
	Entries []Entry `json:"entries"`
}

// NewStore opens or creates a history store at cfg.Path
func NewStore(cfg model.HistoryConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	s := &Store{
		path:       cfg.Path,
		maxEntries: maxEntries,
		logger:     logger,
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Add records a report and persists the store
func (s *Store) Add(report model.Report) (Entry, error) {
	entry := NewEntry(report)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.entries
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}

	if err := s.persist(); err != nil {
		// Keep memory consistent with disk
		s.entries = prev
		return Entry{}, err
	}

	s.logger.Debug("verification recorded",
		zap.String("id", entry.ID),
		zap.Int("claims", entry.ClaimCount))

	return entry, nil
}

// List returns entries newest first, along with the total count before
// pagination. A non-positive limit returns everything past offset.
func (s *Store) List(limit, offset int) ([]Entry, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]Entry, len(s.entries))
	copy(sorted, s.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := len(sorted)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return sorted[offset:end], total
}

// Get returns the entry with the given id
func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}

	return Entry{}, fmt.Errorf("history entry not found: %s", id)
}

// Delete removes an entry and persists the change
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.persist()
		}
	}

	return fmt.Errorf("history entry not found: %s", id)
}

// Count returns the number of recorded runs
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// load reads the store file; a missing file means an empty history
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	s.entries = file.Entries
	return nil
}

// persist rewrites the store file atomically. Callers hold the lock.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(storeFile{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}

	return nil
}
