package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"botdeck/internal/models"
)

// Store persists the full message history as a single JSON array on disk.
// Every mutation re-reads and rewrites the whole file, so disk is always
// the source of truth and nothing is cached between requests. The mutex
// makes each read-modify-write cycle atomic with respect to other
// writers in this process.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a store backed by the given file path. The file does not
// need to exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// LoadAll reads every record from the backing file. A missing or
// unparsable file degrades to an empty history rather than failing the
// caller; first run and corrupted state both start from nothing.
func (s *Store) LoadAll() []models.MessageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// SaveAll replaces the backing file with the given collection. The data
// is written to a temp file and renamed into place so a crash mid-write
// never leaves a truncated history behind.
func (s *Store) SaveAll(records []models.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

// Update runs fn over the current collection and persists its result.
// The lock is held for the whole cycle, so concurrent mutations are
// serialized and cannot overwrite each other's changes. An error from
// fn aborts the update without touching the file.
func (s *Store) Update(fn func(records []models.MessageRecord) ([]models.MessageRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := fn(s.loadLocked())
	if err != nil {
		return err
	}
	return s.saveLocked(records)
}

func (s *Store) loadLocked() []models.MessageRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []models.MessageRecord{}
	}
	var records []models.MessageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []models.MessageRecord{}
	}
	if records == nil {
		records = []models.MessageRecord{}
	}
	return records
}

func (s *Store) saveLocked(records []models.MessageRecord) error {
	if records == nil {
		records = []models.MessageRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create records dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp records file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close records file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace records file: %w", err)
	}
	return nil
}
