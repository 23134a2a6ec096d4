package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, []string{"SPARK", "HADOOP", "KAFKA"}, cfg.Fetch.Collections)
	assert.Equal(t, 50, cfg.Fetch.PageSize)
	assert.Equal(t, DefaultDelay, cfg.Fetch.Delay)
	assert.Equal(t, DefaultRateLimitWait, cfg.Fetch.RateLimitWait)
	assert.Equal(t, StoreJSON, cfg.Checkpoint.Store)
	assert.NoError(t, cfg.Validate())

	// Defaults must not alias the package slice
	cfg.Fetch.Collections[0] = "OTHER"
	assert.Equal(t, "SPARK", DefaultCollections[0])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "zero page size", mutate: func(c *Config) { c.Fetch.PageSize = 0 }, wantErr: ErrInvalidPageSize},
		{name: "zero workers", mutate: func(c *Config) { c.Transform.Workers = 0 }, wantErr: ErrInvalidWorkers},
		{name: "unknown store", mutate: func(c *Config) { c.Checkpoint.Store = "redis" }, wantErr: ErrUnknownStore},
		{name: "empty collection", mutate: func(c *Config) { c.Fetch.Collections = []string{"SPARK", ""} }, wantErr: ErrEmptyCollection},
		{name: "sqlite store", mutate: func(c *Config) { c.Checkpoint.Store = StoreSQLite }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseCollections(t *testing.T) {
	assert.Equal(t, []string{"SPARK", "HADOOP"}, ParseCollections(" SPARK, ,HADOOP ,"))
	assert.Nil(t, ParseCollections(""))
}
