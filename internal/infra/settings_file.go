// Package infra implements infrastructure concerns (persistence,
// launching, clock).
package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

const settingsFileName = "settings.json"

// FileSettings implements domain.SettingsStore as a single JSON
// document. Writes go to a temp file first, then rename, so a crash
// never leaves a half-written document. Corrupt or missing data reads
// as empty: the decision flow must stay available even when history is
// lost.
type FileSettings struct {
	path string
	mu   sync.Mutex
}

// NewFileSettings creates a store under the given data directory.
func NewFileSettings(dataDir string) (*FileSettings, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileSettings{path: filepath.Join(dataDir, settingsFileName)}, nil
}

// NewFileSettingsWithPath creates a store at a specific file path (for testing).
func NewFileSettingsWithPath(path string) *FileSettings {
	return &FileSettings{path: path}
}

// Get returns the stored value and whether the key exists.
func (s *FileSettings) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	value, ok := doc[key]
	return value, ok, nil
}

// Set stores a value, replacing any previous one.
func (s *FileSettings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	doc[key] = value
	return s.atomicWrite(doc)
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *FileSettings) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return s.atomicWrite(doc)
}

// Close is a no-op for the file store.
func (s *FileSettings) Close() error {
	return nil
}

// load reads the whole document, treating any problem as empty.
func (s *FileSettings) load() map[string]string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]string{}
	}
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return map[string]string{}
	}
	return doc
}

// atomicWrite persists the document via write + rename.
func (s *FileSettings) atomicWrite(doc map[string]string) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Ensure FileSettings implements domain.SettingsStore.
var _ domain.SettingsStore = (*FileSettings)(nil)
