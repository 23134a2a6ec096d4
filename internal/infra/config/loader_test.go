package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoaderWithEnv(filepath.Join(t.TempDir(), "harvest.toml"), noEnv)

	cfg, err := loader.Load()
	require.NoError(t, err)

	want := domain.NewDefaultConfig()
	assert.Equal(t, want.Source, cfg.Source)
	assert.Equal(t, want.Fetch, cfg.Fetch)
	assert.Equal(t, want.Paths, cfg.Paths)
	assert.Equal(t, domain.StoreJSON, cfg.Checkpoint.Store)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_TOMLOverlay(t *testing.T) {
	path := writeConfig(t, "harvest.toml", `
[fetch]
collections = ["HIVE", "FLINK"]
page_size = 100
delay = "250ms"

[checkpoint]
store = "sqlite"

[transform]
workers = 4
`)

	cfg, err := NewLoaderWithEnv(path, noEnv).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"HIVE", "FLINK"}, cfg.Fetch.Collections)
	assert.Equal(t, 100, cfg.Fetch.PageSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetch.Delay)
	assert.Equal(t, domain.DefaultRateLimitWait, cfg.Fetch.RateLimitWait)
	assert.Equal(t, domain.StoreSQLite, cfg.Checkpoint.Store)
	assert.Equal(t, 4, cfg.Transform.Workers)
	assert.Equal(t, domain.DefaultBaseURL, cfg.Source.BaseURL)
}

func TestLoader_YAMLOverlay(t *testing.T) {
	path := writeConfig(t, "harvest.yaml", `
source:
  timeout: 5s
fetch:
  collections: [SPARK]
  max_rate_limit_retries: 10
paths:
  data_dir: /var/lib/harvest
`)

	cfg, err := NewLoaderWithEnv(path, noEnv).Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, []string{"SPARK"}, cfg.Fetch.Collections)
	assert.Equal(t, 10, cfg.Fetch.MaxRateLimitRetries)
	assert.Equal(t, "/var/lib/harvest", cfg.Paths.DataDir)
	assert.Equal(t, domain.DefaultOutputDir, cfg.Paths.OutputDir)
}

func TestLoader_EmptyYAML(t *testing.T) {
	path := writeConfig(t, "harvest.yml", "")

	cfg, err := NewLoaderWithEnv(path, noEnv).Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPageSize, cfg.Fetch.PageSize)
}

func TestLoader_UnknownKeysAreWarnings(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "harvest.toml", "[fetch]\npage_size = 20\npagesize = 30\n"},
		{"yaml", "harvest.yaml", "fetch:\n  page_size: 20\n  pagesize: 30\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)

			cfg, err := NewLoaderWithEnv(path, noEnv).Load()
			require.NoError(t, err)

			assert.Equal(t, 20, cfg.Fetch.PageSize)
			require.Len(t, cfg.Warnings, 1)
			assert.Contains(t, cfg.Warnings[0], "pagesize")
		})
	}
}

func TestLoader_EnvOverridesCollections(t *testing.T) {
	path := writeConfig(t, "harvest.toml", "[fetch]\ncollections = [\"SPARK\"]\n")
	env := func(key string) string {
		if key == domain.CollectionsEnv {
			return " HIVE, ,KAFKA "
		}
		return ""
	}

	cfg, err := NewLoaderWithEnv(path, env).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"HIVE", "KAFKA"}, cfg.Fetch.Collections)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"bad duration", "harvest.toml", "[fetch]\ndelay = \"soon\"\n", nil},
		{"negative duration", "harvest.toml", "[fetch]\ndelay = \"-1s\"\n", nil},
		{"syntax", "harvest.toml", "[fetch\n", nil},
		{"zero page size", "harvest.toml", "[fetch]\npage_size = 0\n", domain.ErrInvalidPageSize},
		{"zero workers", "harvest.toml", "[transform]\nworkers = 0\n", domain.ErrInvalidWorkers},
		{"unknown store", "harvest.toml", "[checkpoint]\nstore = \"redis\"\n", domain.ErrUnknownStore},
		{"path in collection", "harvest.toml", "[fetch]\ncollections = [\"../etc\"]\n", nil},
		{"extension", "harvest.ini", "page_size=1\n", domain.ErrUnsupportedConfigExt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)

			_, err := NewLoaderWithEnv(path, noEnv).Load()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
