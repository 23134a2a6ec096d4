package domain

import (
	"fmt"
	"strings"
	"time"
)

// ConfigFileName is the default configuration file name.
const ConfigFileName = "harvest.toml"

// CollectionsEnv overrides Fetch.Collections with a comma separated list.
const CollectionsEnv = "JIRA_PROJECTS"

// Checkpoint store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Default configuration values.
const (
	DefaultBaseURL        = "https://issues.apache.org/jira/rest/api/2/search"
	DefaultJQL            = `project = "{{.Collection}}" ORDER BY created DESC`
	DefaultFields         = "*all"
	DefaultTimeout        = 30 * time.Second
	DefaultUserAgent      = "issue-harvest"
	DefaultPageSize       = 50
	DefaultDelay          = 1 * time.Second
	DefaultRateLimitWait  = 60 * time.Second
	DefaultNetworkRetries = 3
	DefaultDataDir        = "data"
	DefaultOutputDir      = "transformed_data"
	DefaultWorkers        = 1
	DefaultLogLevel       = "info"
)

// DefaultCollections are fetched when nothing else is configured.
var DefaultCollections = []string{"SPARK", "HADOOP", "KAFKA"}

// Config represents the application configuration.
type Config struct {
	Warnings   []string
	Source     SourceConfig
	Fetch      FetchConfig
	Paths      PathsConfig
	Checkpoint CheckpointConfig
	Log        LogConfig
	Transform  TransformConfig
}

// SourceConfig describes the remote search endpoint from [source].
type SourceConfig struct {
	BaseURL   string        // Search endpoint
	JQL       string        // Filter template; {{.Collection}} is the collection id
	Fields    string        // Field selection directive
	UserAgent string        // User-Agent header
	Timeout   time.Duration // Per-request timeout
}

// FetchConfig controls the fetch loop from [fetch].
type FetchConfig struct {
	Collections         []string      // Ordered collection ids
	PageSize            int           // Records per request
	Delay               time.Duration // Pause between pages
	RateLimitWait       time.Duration // Wait on 429 without Retry-After
	MaxRateLimitRetries int           // 0 means unlimited
	NetworkRetries      int           // Retries of a transport failure before aborting
}

// PathsConfig holds storage locations from [paths].
type PathsConfig struct {
	DataDir   string // Raw logs, checkpoint and logs
	OutputDir string // Transformed output
}

// CheckpointConfig selects the checkpoint backend from [checkpoint].
type CheckpointConfig struct {
	Store string // "json" (default) or "sqlite"
}

// TransformConfig controls the transform driver from [transform].
type TransformConfig struct {
	Workers int // Files transformed concurrently
}

// LogConfig holds logging settings from [log].
type LogConfig struct {
	Level string // debug, info, warn, error
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:   DefaultBaseURL,
			JQL:       DefaultJQL,
			Fields:    DefaultFields,
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultTimeout,
		},
		Fetch: FetchConfig{
			Collections:    append([]string(nil), DefaultCollections...),
			PageSize:       DefaultPageSize,
			Delay:          DefaultDelay,
			RateLimitWait:  DefaultRateLimitWait,
			NetworkRetries: DefaultNetworkRetries,
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
		},
		Checkpoint: CheckpointConfig{Store: StoreJSON},
		Transform:  TransformConfig{Workers: DefaultWorkers},
		Log:        LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks values that would make the pipeline misbehave.
func (c *Config) Validate() error {
	if c.Fetch.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Transform.Workers <= 0 {
		return ErrInvalidWorkers
	}
	switch c.Checkpoint.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Checkpoint.Store)
	}
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return fmt.Errorf("source.base_url cannot be empty")
	}
	for _, id := range c.Fetch.Collections {
		if err := ValidateCollectionID(id); err != nil {
			return err
		}
	}
	return nil
}

// ParseCollections splits a comma separated list, dropping blanks.
func ParseCollections(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
