// Package logging provides file-based logging for harvest runs.
// It outputs logs to a global log file (<data>/logs/harvest.log) and
// collection-specific log files (<data>/logs/<collection>.log), and mirrors
// every entry to an optional console slog.Logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger wraps slog.Logger with file-based output support.
// Fields are ordered to minimize memory padding.
type Logger struct {
	console         *slog.Logger
	globalFile      *os.File
	collectionFiles map[string]*os.File
	dataDir         string
	mu              sync.Mutex
	level           slog.Level
}

// New creates a new Logger that writes below dataDir/logs.
// If dataDir is empty, file logging is disabled. console may be nil.
func New(dataDir string, level slog.Level, console *slog.Logger) *Logger {
	return &Logger{
		console:         console,
		dataDir:         dataDir,
		level:           level,
		collectionFiles: make(map[string]*os.File),
	}
}

// NewConsole returns a text slog.Logger on w, the way the CLI reports progress.
func NewConsole(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureLogsDir creates the logs directory if it doesn't exist.
func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(domain.LogDir(l.dataDir), 0o750)
}

// ensureGlobalFile opens or returns the global log file.
func (l *Logger) ensureGlobalFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile != nil {
		return l.globalFile, nil
	}

	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	path := domain.GlobalLogPath(l.dataDir)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open global log file: %w", err)
	}
	l.globalFile = f
	return f, nil
}

// ensureCollectionFile opens or returns the collection log file.
func (l *Logger) ensureCollectionFile(collection string) (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.collectionFiles[collection]; ok {
		return f, nil
	}

	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	path := domain.CollectionLogPath(l.dataDir, collection)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open collection log file: %w", err)
	}
	l.collectionFiles[collection] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.collectionFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.collectionFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry in the specified format.
// Format: [2025-12-30 09:32:51] [INFO] [SPARK] [fetch] message
func formatLog(t time.Time, level slog.Level, collection, category, msg string) string {
	scope := "global"
	if collection != "" {
		scope = collection
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes a log entry to the console and the appropriate files.
// An empty collection logs only to the global file.
func (l *Logger) log(level slog.Level, collection, category, msg string) {
	if level < l.level {
		return // Skip if below minimum level
	}

	if l.console != nil {
		attrs := []any{slog.String("category", category)}
		if collection != "" {
			attrs = append(attrs, slog.String("collection", collection))
		}
		l.console.Log(context.Background(), level, msg, attrs...)
	}

	if l.dataDir == "" {
		return // File logging disabled
	}

	entry := formatLog(time.Now(), level, collection, category, msg)

	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}

	if collection != "" {
		if cf, err := l.ensureCollectionFile(collection); err == nil {
			_, _ = io.WriteString(cf, entry)
		}
	}
}

// Info logs an info message.
func (l *Logger) Info(collection, category, msg string) {
	l.log(slog.LevelInfo, collection, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(collection, category, msg string) {
	l.log(slog.LevelDebug, collection, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(collection, category, msg string) {
	l.log(slog.LevelWarn, collection, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(collection, category, msg string) {
	l.log(slog.LevelError, collection, category, msg)
}
