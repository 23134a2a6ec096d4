// Package sqlitestore provides a SQLite-backed implementation of CheckpointStore.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Ensure Store implements CheckpointStore.
var _ domain.CheckpointStore = (*Store)(nil)

// Store keeps one row per collection in the checkpoints table.
type Store struct {
	db    *sql.DB
	clock domain.Clock
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string, clock domain.Clock) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("open checkpoint db: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	// One writer at a time; the pipeline is single-threaded anyway
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, clock)
}

// New returns a Store bound to an existing, migrated database handle.
func New(db *sql.DB, clock domain.Clock) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Store{db: db, clock: clock}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads all checkpoint rows.
func (s *Store) Load() (domain.CheckpointState, error) {
	state := domain.NewCheckpointState()

	rows, err := s.db.Query(`SELECT collection_id, start_at, completed FROM checkpoints`)
	if err != nil {
		return domain.NewCheckpointState(), fmt.Errorf("%w: query: %w", domain.ErrCorruptCheckpoint, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id        string
			startAt   int
			completed bool
		)
		if err := rows.Scan(&id, &startAt, &completed); err != nil {
			return domain.NewCheckpointState(), fmt.Errorf("%w: scan: %w", domain.ErrCorruptCheckpoint, err)
		}
		if startAt < 0 {
			startAt = 0
		}
		state[id] = &domain.CheckpointEntry{StartAt: startAt, Completed: completed}
	}
	if err := rows.Err(); err != nil {
		return domain.NewCheckpointState(), fmt.Errorf("%w: rows: %w", domain.ErrCorruptCheckpoint, err)
	}
	return state, nil
}

// Save upserts every entry of state in one transaction.
// Rows absent from state are left untouched.
func (s *Store) Save(state domain.CheckpointState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save checkpoint: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := s.clock.Now().UTC().Format(time.RFC3339Nano)
	const upsert = `INSERT INTO checkpoints (collection_id, start_at, completed, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection_id) DO UPDATE SET
			start_at = excluded.start_at,
			completed = excluded.completed,
			updated_at = excluded.updated_at`

	for _, id := range state.IDs() {
		e := state[id]
		if e == nil {
			continue
		}
		if _, err := tx.Exec(upsert, id, e.StartAt, e.Completed, now); err != nil {
			return fmt.Errorf("save checkpoint %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save checkpoint: commit: %w", err)
	}
	return nil
}
