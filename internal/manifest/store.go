// Package manifest tracks the documents that make up the corpus. It is the
// authoritative listing: the vector index holds the chunks, the manifest
// holds one record per document with the metadata the API reports back.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/quarind/docqa/internal/model"
)

// Store is an in-memory document registry persisted as a JSON blob.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]model.DocumentRecord
}

func NewStore(path string) *Store {
	return &Store{path: path, records: map[string]model.DocumentRecord{}}
}

// Load reads the manifest blob from disk. A missing file is a fresh
// deployment, not an error; a corrupt file is reported so the caller can
// decide whether to proceed.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var records map[string]model.DocumentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}
	s.mu.Lock()
	s.records = records
	if s.records == nil {
		s.records = map[string]model.DocumentRecord{}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(docID string) (model.DocumentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[docID]
	return rec, ok
}

func (s *Store) Put(rec model.DocumentRecord) {
	s.mu.Lock()
	s.records[rec.DocID] = rec
	s.mu.Unlock()
}

// Delete removes the record and reports whether it existed.
func (s *Store) Delete(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[docID]; !ok {
		return false
	}
	delete(s.records, docID)
	return true
}

// ListAll returns every record ordered by upload time, oldest first.
// Ties fall back to doc id so the order is stable.
func (s *Store) ListAll() []model.DocumentRecord {
	s.mu.RLock()
	out := make([]model.DocumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadTime.Equal(out[j].UploadTime) {
			return out[i].UploadTime.Before(out[j].UploadTime)
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ChunkTotal sums NumChunks over all records. Used to cross-check the
// vector index at startup.
func (s *Store) ChunkTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, rec := range s.records {
		total += rec.NumChunks
	}
	return total
}

// Persist writes the manifest to disk via a temp file rename so a crash
// mid-write never leaves a truncated manifest behind.
func (s *Store) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
