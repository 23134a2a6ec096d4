package config

import (
	"fmt"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// fileConfig mirrors domain.Config in the on-disk layout.
// Durations are strings such as "1s" or "500ms".
type fileConfig struct {
	Source     sourceSection     `toml:"source" yaml:"source"`
	Fetch      fetchSection      `toml:"fetch" yaml:"fetch"`
	Paths      pathsSection      `toml:"paths" yaml:"paths"`
	Checkpoint checkpointSection `toml:"checkpoint" yaml:"checkpoint"`
	Transform  transformSection  `toml:"transform" yaml:"transform"`
	Log        logSection        `toml:"log" yaml:"log"`
}

type sourceSection struct {
	BaseURL   string `toml:"base_url" yaml:"base_url"`
	JQL       string `toml:"jql" yaml:"jql"`
	Fields    string `toml:"fields" yaml:"fields"`
	UserAgent string `toml:"user_agent" yaml:"user_agent"`
	Timeout   string `toml:"timeout" yaml:"timeout"`
}

type fetchSection struct {
	Collections         []string `toml:"collections" yaml:"collections"`
	Delay               string   `toml:"delay" yaml:"delay"`
	RateLimitWait       string   `toml:"rate_limit_wait" yaml:"rate_limit_wait"`
	PageSize            int      `toml:"page_size" yaml:"page_size"`
	MaxRateLimitRetries int      `toml:"max_rate_limit_retries" yaml:"max_rate_limit_retries"`
	NetworkRetries      int      `toml:"network_retries" yaml:"network_retries"`
}

type pathsSection struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`
}

type checkpointSection struct {
	Store string `toml:"store" yaml:"store"`
}

type transformSection struct {
	Workers int `toml:"workers" yaml:"workers"`
}

type logSection struct {
	Level string `toml:"level" yaml:"level"`
}

func fromDomain(c *domain.Config) fileConfig {
	return fileConfig{
		Source: sourceSection{
			BaseURL:   c.Source.BaseURL,
			JQL:       c.Source.JQL,
			Fields:    c.Source.Fields,
			UserAgent: c.Source.UserAgent,
			Timeout:   c.Source.Timeout.String(),
		},
		Fetch: fetchSection{
			Collections:         append([]string(nil), c.Fetch.Collections...),
			PageSize:            c.Fetch.PageSize,
			Delay:               c.Fetch.Delay.String(),
			RateLimitWait:       c.Fetch.RateLimitWait.String(),
			MaxRateLimitRetries: c.Fetch.MaxRateLimitRetries,
			NetworkRetries:      c.Fetch.NetworkRetries,
		},
		Paths: pathsSection{
			DataDir:   c.Paths.DataDir,
			OutputDir: c.Paths.OutputDir,
		},
		Checkpoint: checkpointSection{Store: c.Checkpoint.Store},
		Transform:  transformSection{Workers: c.Transform.Workers},
		Log:        logSection{Level: c.Log.Level},
	}
}

func (f fileConfig) toDomain() (*domain.Config, error) {
	timeout, err := parseDuration("source.timeout", f.Source.Timeout)
	if err != nil {
		return nil, err
	}
	delay, err := parseDuration("fetch.delay", f.Fetch.Delay)
	if err != nil {
		return nil, err
	}
	wait, err := parseDuration("fetch.rate_limit_wait", f.Fetch.RateLimitWait)
	if err != nil {
		return nil, err
	}

	return &domain.Config{
		Source: domain.SourceConfig{
			BaseURL:   f.Source.BaseURL,
			JQL:       f.Source.JQL,
			Fields:    f.Source.Fields,
			UserAgent: f.Source.UserAgent,
			Timeout:   timeout,
		},
		Fetch: domain.FetchConfig{
			Collections:         f.Fetch.Collections,
			PageSize:            f.Fetch.PageSize,
			Delay:               delay,
			RateLimitWait:       wait,
			MaxRateLimitRetries: f.Fetch.MaxRateLimitRetries,
			NetworkRetries:      f.Fetch.NetworkRetries,
		},
		Paths: domain.PathsConfig{
			DataDir:   f.Paths.DataDir,
			OutputDir: f.Paths.OutputDir,
		},
		Checkpoint: domain.CheckpointConfig{Store: f.Checkpoint.Store},
		Transform:  domain.TransformConfig{Workers: f.Transform.Workers},
		Log:        domain.LogConfig{Level: f.Log.Level},
	}, nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration cannot be negative", key)
	}
	return d, nil
}
