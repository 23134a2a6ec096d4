package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/runoshun/issue-harvest/internal/infra/jsonstore"
	"github.com/runoshun/issue-harvest/internal/infra/sqlitestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, store string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	path := filepath.Join(dir, "harvest.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\noutput_dir = %q\n\n[checkpoint]\nstore = %q\n",
		dataDir, filepath.Join(dir, "out"), store)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path, dataDir
}

func TestContainer_LoadJSONStore(t *testing.T) {
	path, dataDir := writeConfig(t, domain.StoreJSON)
	c := New(path, &bytes.Buffer{})

	require.NoError(t, c.Load())
	defer func() { _ = c.Close() }()

	store, ok := c.Store.(*jsonstore.Store)
	require.True(t, ok)
	assert.Equal(t, domain.CheckpointPath(dataDir), store.Path())
	assert.Equal(t, dataDir, c.AppConfig.Paths.DataDir)
	assert.NotNil(t, c.Source)
	assert.NotNil(t, c.RawLog)
	assert.NotNil(t, c.Sink)
	assert.Equal(t, path, c.Manager().Info().Path)

	// Loading twice keeps the first binding
	require.NoError(t, c.Load())
	assert.Same(t, store, c.Store)
}

func TestContainer_LoadSQLiteStore(t *testing.T) {
	path, dataDir := writeConfig(t, domain.StoreSQLite)
	c := New(path, &bytes.Buffer{})

	require.NoError(t, c.Load())
	_, ok := c.Store.(*sqlitestore.Store)
	require.True(t, ok)
	require.NoError(t, c.Store.Save(domain.CheckpointState{"SPARK": {StartAt: 50}}))
	require.NoError(t, c.Close())

	assert.FileExists(t, domain.CheckpointDBPath(dataDir))
}

func TestContainer_LoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvest.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fetch]\npage_size = -1\n"), 0o600))

	c := New(path, &bytes.Buffer{})
	err := c.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidPageSize)

	// The manager still works for config init/show
	assert.True(t, c.Manager().Info().Exists)
}
