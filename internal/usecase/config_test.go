package usecase_test

import (
	"context"
	"testing"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/runoshun/issue-harvest/internal/testutil"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Execute(t *testing.T) {
	t.Run("creates config", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.ConfigInfo = domain.ConfigInfo{Path: "/work/harvest.toml"}

		out, err := usecase.NewInitConfig(manager).Execute(context.Background(), usecase.InitConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, "/work/harvest.toml", out.Path)
		assert.True(t, manager.InitCalled)
	})

	t.Run("returns error when config already exists", func(t *testing.T) {
		manager := testutil.NewMockConfigManager()
		manager.InitErr = domain.ErrConfigExists

		_, err := usecase.NewInitConfig(manager).Execute(context.Background(), usecase.InitConfigInput{})

		assert.ErrorIs(t, err, domain.ErrConfigExists)
	})
}

func TestShowConfig_Execute(t *testing.T) {
	manager := testutil.NewMockConfigManager()
	manager.ConfigInfo = domain.ConfigInfo{Path: "harvest.toml", Exists: true}
	cfg := domain.NewDefaultConfig()
	cfg.Fetch.PageSize = 25
	cfg.Warnings = []string{"unknown key in config: fetch.pagesize"}

	out, err := usecase.NewShowConfig(manager, cfg).Execute(context.Background(), usecase.ShowConfigInput{})

	require.NoError(t, err)
	assert.True(t, out.File.Exists)
	assert.Equal(t, "page_size = 25\n", out.Effective)
	assert.Equal(t, cfg.Warnings, out.Warnings)
}

func TestShowConfig_RenderError(t *testing.T) {
	manager := testutil.NewMockConfigManager()
	manager.RenderErr = assert.AnError

	_, err := usecase.NewShowConfig(manager, domain.NewDefaultConfig()).Execute(context.Background(), usecase.ShowConfigInput{})

	assert.ErrorIs(t, err, assert.AnError)
}
