package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File naming.
const (
	RawLogSuffix       = "_issues.jsonl"
	TransformedSuffix  = "_transformed.jsonl"
	CheckpointFileName = "scraper_state.json"
	CheckpointDBName   = "scraper_state.db"
	GlobalLogFileName  = "harvest.log"
)

// ValidateCollectionID rejects ids that cannot be used as a file name prefix.
func ValidateCollectionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyCollection
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid collection id %q", id)
	}
	return nil
}

// RawLogPath returns the raw log file of a collection.
func RawLogPath(dataDir, collection string) string {
	return filepath.Join(dataDir, collection+RawLogSuffix)
}

// CollectionFromRawLog extracts the collection id from a raw log file name.
func CollectionFromRawLog(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, RawLogSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(base, RawLogSuffix)
	if id == "" {
		return "", false
	}
	return id, true
}

// TransformedPath returns the transformed output file of a collection.
func TransformedPath(outputDir, collection string) string {
	return filepath.Join(outputDir, collection+TransformedSuffix)
}

// CheckpointPath returns the JSON checkpoint file.
func CheckpointPath(dataDir string) string {
	return filepath.Join(dataDir, CheckpointFileName)
}

// CheckpointDBPath returns the SQLite checkpoint database.
func CheckpointDBPath(dataDir string) string {
	return filepath.Join(dataDir, CheckpointDBName)
}

// LogDir returns the log directory.
func LogDir(dataDir string) string {
	return filepath.Join(dataDir, "logs")
}

// GlobalLogPath returns the run-wide log file.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(LogDir(dataDir), GlobalLogFileName)
}

// CollectionLogPath returns the log file of one collection.
func CollectionLogPath(dataDir, collection string) string {
	return filepath.Join(LogDir(dataDir), collection+".log")
}
