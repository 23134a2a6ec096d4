// Package jsonl stores raw and transformed records as JSON Lines files.
package jsonl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure RawLog implements domain.RawLog.
var _ domain.RawLog = (*RawLog)(nil)

// RawLog keeps one append-only <collection>_issues.jsonl file per collection.
type RawLog struct {
	dir string
}

// NewRawLog creates a RawLog rooted at dir.
func NewRawLog(dir string) *RawLog {
	return &RawLog{dir: dir}
}

// Append writes records to the end of the collection's log, one per line.
// Records are validated and compacted before anything is written.
func (l *RawLog) Append(collection string, records []json.RawMessage) error {
	if err := domain.ValidateCollectionID(collection); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i, rec := range records {
		if err := json.Compact(&buf, rec); err != nil {
			return fmt.Errorf("record %d: %w: %w", i, domain.ErrMalformedRecord, err)
		}
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	path := domain.RawLogPath(l.dir, collection)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Raw log readable by owner and group
	if err != nil {
		return fmt.Errorf("open raw log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append raw log: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync raw log: %w", err)
	}
	return f.Close()
}

// List returns the collections with a raw log, sorted by id.
func (l *RawLog) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := domain.CollectionFromRawLog(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Open opens a collection's raw log for reading.
func (l *RawLog) Open(collection string) (io.ReadCloser, error) {
	if err := domain.ValidateCollectionID(collection); err != nil {
		return nil, err
	}
	f, err := os.Open(domain.RawLogPath(l.dir, collection))
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	return f, nil
}
