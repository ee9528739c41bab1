// Package jsonfile implements stores backed by JSON files on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/colonyops/policyview/internal/core/history"
	"github.com/colonyops/policyview/pkg/randid"
)

const historyVersion = 1

// historyFile is the root JSON structure stored on disk.
type historyFile struct {
	Version int             `json:"version"`
	Entries []history.Entry `json:"entries"`
}

// HistoryStore implements history.Store using a JSON file for persistence.
// Entries are kept newest first.
type HistoryStore struct {
	path string
	now  func() time.Time
	mu   sync.RWMutex
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a new JSON file history store at the given path.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path, now: time.Now}
}

// List returns all history entries, newest first.
func (s *HistoryStore) List(ctx context.Context) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Entries, nil
}

// Get returns a history entry by ID. Returns ErrNotFound if not found.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return history.Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return history.Entry{}, history.ErrNotFound
}

// Save prepends entry and prunes the file to maxEntries (0 keeps all).
// A missing ID or timestamp is filled in.
func (s *HistoryStore) Save(ctx context.Context, entry history.Entry, maxEntries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = randid.Generate(8)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	file.Entries = append([]history.Entry{entry}, file.Entries...)
	if maxEntries > 0 && len(file.Entries) > maxEntries {
		file.Entries = file.Entries[:maxEntries]
	}

	return s.save(file)
}

// Clear removes all history entries.
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(historyFile{Entries: []history.Entry{}})
}

// LastFailed returns the most recent failed entry. Returns ErrNotFound if none.
func (s *HistoryStore) LastFailed(ctx context.Context) (history.Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return history.Entry{}, err
	}

	for _, entry := range entries {
		if entry.Failed() {
			return entry, nil
		}
	}
	return history.Entry{}, history.ErrNotFound
}

// load reads the history file. A missing or empty file is an empty history.
func (s *HistoryStore) load() (historyFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return historyFile{Version: historyVersion}, nil
		}
		return historyFile{}, fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		return historyFile{Version: historyVersion}, nil
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return historyFile{}, fmt.Errorf("decode history %s: %w", s.path, err)
	}
	return file, nil
}

// save writes the history file through a temp file and rename.
func (s *HistoryStore) save(file historyFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	file.Version = historyVersion
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp, s.path)
}
