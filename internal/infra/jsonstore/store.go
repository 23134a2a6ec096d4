// Package jsonstore provides a JSON file-based implementation of CheckpointStore.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure Store implements CheckpointStore.
var _ domain.CheckpointStore = (*Store)(nil)

// Store keeps the checkpoint state in a single JSON object:
//
//	{"SPARK": {"start_at": 150, "completed": false}}
type Store struct {
	path string
}

// New creates a new Store for the given file path.
// The file does not need to exist; it will be created on first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint file.
func (s *Store) Load() (domain.CheckpointState, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewCheckpointState(), nil
		}
		return domain.NewCheckpointState(), fmt.Errorf("%w: read %s: %w", domain.ErrCorruptCheckpoint, s.path, err)
	}

	var raw map[string]*domain.CheckpointEntry
	if err := json.Unmarshal(content, &raw); err != nil {
		return domain.NewCheckpointState(), fmt.Errorf("%w: parse %s: %w", domain.ErrCorruptCheckpoint, s.path, err)
	}

	state := domain.NewCheckpointState()
	for id, e := range raw {
		// A hand-edited entry may be null or carry a negative offset
		if e == nil {
			continue
		}
		if e.StartAt < 0 {
			e.StartAt = 0
		}
		state[id] = e
	}
	return state, nil
}

// Save writes the full state atomically.
func (s *Store) Save(state domain.CheckpointState) error {
	if state == nil {
		state = domain.NewCheckpointState()
	}
	// encoding/json sorts map keys, so the file is stable across saves
	content, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	content = append(content, '\n')

	return writeFileAtomic(s.path, content)
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path, so readers never see a partial file.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}

	// Best effort: persist the directory entry
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
