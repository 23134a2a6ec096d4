// Package config provides configuration loading functionality.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/issue-harvest/internal/domain"
	"gopkg.in/yaml.v3"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from a TOML or YAML file.
type Loader struct {
	getenv func(string) string
	path   string
}

// NewLoader creates a new Loader for path.
func NewLoader(path string) *Loader {
	return &Loader{path: path, getenv: os.Getenv}
}

// NewLoaderWithEnv creates a new Loader with a custom environment lookup.
// This is useful for testing.
func NewLoaderWithEnv(path string, getenv func(string) string) *Loader {
	return &Loader{path: path, getenv: getenv}
}

// Load returns the effective configuration: defaults <- file <- environment.
// A missing file is not an error.
func (l *Loader) Load() (*domain.Config, error) {
	fc := fromDomain(domain.NewDefaultConfig())
	var warnings []string

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		warnings, err = decode(l.path, data, &fc)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", l.path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := fc.toDomain()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.path, err)
	}
	if env := l.getenv(domain.CollectionsEnv); env != "" {
		cfg.Fetch.Collections = domain.ParseCollections(env)
	}
	cfg.Warnings = warnings

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decode overlays data onto fc and reports unknown keys as warnings.
func decode(path string, data []byte, fc *fileConfig) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", "":
		return decodeTOML(data, fc)
	case ".yaml", ".yml":
		return decodeYAML(data, fc)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedConfigExt, filepath.Ext(path))
	}
}

func decodeTOML(data []byte, fc *fileConfig) ([]string, error) {
	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	err := d.Decode(fc)
	if err == nil {
		return nil, nil
	}

	var strict *toml.StrictMissingError
	if !errors.As(err, &strict) {
		return nil, err
	}
	var warnings []string
	for _, e := range strict.Errors {
		warnings = append(warnings, fmt.Sprintf("unknown key in config: %s", strings.Join(e.Key(), ".")))
	}
	if err := toml.Unmarshal(data, fc); err != nil {
		return nil, err
	}
	return warnings, nil
}

func decodeYAML(data []byte, fc *fileConfig) ([]string, error) {
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	err := d.Decode(fc)
	if err == nil || errors.Is(err, io.EOF) {
		return nil, nil
	}

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, err
	}
	// Unknown fields only: a lenient pass succeeds and fills the known ones
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, err
	}
	warnings := make([]string, 0, len(typeErr.Errors))
	for _, msg := range typeErr.Errors {
		warnings = append(warnings, "unknown key in config: "+msg)
	}
	return warnings, nil
}
