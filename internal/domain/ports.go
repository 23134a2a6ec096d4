package domain

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// CheckpointStore persists per-collection fetch progress.
type CheckpointStore interface {
	// Load returns the persisted state. A missing store yields an empty state
	// and nil error. Unreadable content yields an empty state together with an
	// error wrapping ErrCorruptCheckpoint; callers may continue with the state.
	Load() (CheckpointState, error)

	// Save atomically replaces the persisted state.
	Save(state CheckpointState) error
}

// IssueSource fetches pages of raw records from the remote tracker.
type IssueSource interface {
	// FetchPage requests one page and classifies the result.
	FetchPage(ctx context.Context, req PageRequest) FetchOutcome
}

// RawLog is the append-only store of raw records, one log per collection.
type RawLog interface {
	// Append writes records, in order, to the end of the collection's log.
	Append(collection string, records []json.RawMessage) error

	// List returns the collections that have a log, sorted by id.
	List() ([]string, error)

	// Open opens a collection's log for reading.
	Open(collection string) (io.ReadCloser, error)
}

// TransformedSink stores transformed output, one file per collection.
type TransformedSink interface {
	// Create starts a fresh output for collection. The previous output is
	// replaced only when the returned writer is committed.
	Create(collection string) (OutputWriter, error)
}

// OutputWriter receives transformed lines for one collection.
type OutputWriter interface {
	io.Writer
	// Commit makes the written output visible and releases the writer.
	Commit() error
	// Abort discards the written output and releases the writer.
	Abort() error
	// Path returns the final location of the output.
	Path() string
}

// Sleeper pauses execution. Implementations return early with the context
// error when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper implements Sleeper with timers.
type RealSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Logger records harvest events. An empty collection means a global entry.
type Logger interface {
	Debug(collection, category, msg string)
	Info(collection, category, msg string)
	Warn(collection, category, msg string)
	Error(collection, category, msg string)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, string, string) {}
func (NopLogger) Info(string, string, string)  {}
func (NopLogger) Warn(string, string, string)  {}
func (NopLogger) Error(string, string, string) {}

// Progress receives progress updates for display.
type Progress interface {
	// PageFetched is called after a page was appended and checkpointed.
	PageFetched(collection string, fetched, total int)
	// FileTransformed is called after a collection's output was committed.
	FileTransformed(collection string, stats TransformStats)
}

// NopProgress discards progress updates.
type NopProgress struct{}

func (NopProgress) PageFetched(string, int, int)             {}
func (NopProgress) FileTransformed(string, TransformStats) {}

// TransformStats counts the lines of one transformed file.
type TransformStats struct {
	Lines   int // Non-blank input lines
	Written int // Output records
	Skipped int // Malformed input lines
}

// ConfigLoader loads the effective configuration.
type ConfigLoader interface {
	// Load returns defaults overlaid with the config file and environment.
	Load() (*Config, error)
}

// ConfigManager manages the configuration file.
type ConfigManager interface {
	// Info returns the location of the config file and whether it exists.
	Info() ConfigInfo
	// Init writes the default template. Returns ErrConfigExists if present.
	Init() error
	// Render encodes cfg in the config file format.
	Render(cfg *Config) ([]byte, error)
}

// ConfigInfo describes a configuration file.
type ConfigInfo struct {
	Path   string
	Exists bool
}
