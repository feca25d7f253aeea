// Package history persists the time-ordered price observation log as a
// single JSON file.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// FileStore reads and writes the full observation history. The file holds
// one JSON array of observations; a missing file means empty history.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// LoadAll returns every stored observation. An absent or unparsable file
// degrades to an empty history with a warning; corruption is never fatal
// to the caller.
func (s *FileStore) LoadAll() []pricing.Observation {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read history file; starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return []pricing.Observation{}
	}

	var observations []pricing.Observation
	if err := json.Unmarshal(data, &observations); err != nil {
		s.logger.Warn("Failed to parse history file; starting empty",
			zap.String("path", s.path), zap.Error(err))
		return []pricing.Observation{}
	}
	if observations == nil {
		return []pricing.Observation{}
	}
	return observations
}

// SaveAll writes the complete history back, replacing prior contents. The
// write goes to a temp file in the same directory and is renamed into
// place, so a concurrent reader never sees a half-written file and a
// crash mid-write leaves the previous history intact.
func (s *FileStore) SaveAll(observations []pricing.Observation) error {
	if observations == nil {
		observations = []pricing.Observation{}
	}
	data, err := json.MarshalIndent(observations, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best-effort cleanup when any step below fails.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	s.logger.Info("Saved price history",
		zap.String("path", s.path), zap.Int("entries", len(observations)))
	return nil
}
