package jsonl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure Sink implements domain.TransformedSink.
var _ domain.TransformedSink = (*Sink)(nil)

// Sink writes <collection>_transformed.jsonl files into a directory.
type Sink struct {
	dir string
}

// NewSink creates a Sink rooted at dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Create opens a temp file next to the final output. The existing output is
// replaced only on Commit.
func (s *Sink) Create(collection string) (domain.OutputWriter, error) {
	if err := domain.ValidateCollectionID(collection); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	path := domain.TransformedPath(s.dir, collection)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &outputFile{
		file: tmp,
		buf:  bufio.NewWriterSize(tmp, 256*1024),
		path: path,
	}, nil
}

type outputFile struct {
	file *os.File
	buf  *bufio.Writer
	path string
	done bool
}

func (o *outputFile) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

func (o *outputFile) Path() string {
	return o.path
}

func (o *outputFile) Commit() error {
	if o.done {
		return nil
	}
	o.done = true
	tmpPath := o.file.Name()

	if err := o.buf.Flush(); err != nil {
		_ = o.file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("flush output: %w", err)
	}
	if err := o.file.Sync(); err != nil {
		_ = o.file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync output: %w", err)
	}
	if err := o.file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o640); err != nil { //nolint:gosec // Output readable by owner and group
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpPath, o.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

func (o *outputFile) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	_ = o.file.Close()
	if err := os.Remove(o.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	return nil
}
