package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/issue-harvest/internal/domain"
	"gopkg.in/yaml.v3"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager manages the configuration file.
type Manager struct {
	path string
}

// NewManager creates a new Manager for path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Info returns information about the config file.
func (m *Manager) Info() domain.ConfigInfo {
	_, err := os.Stat(m.path)
	return domain.ConfigInfo{
		Path:   m.path,
		Exists: err == nil,
	}
}

// Init creates the config file from the default template.
func (m *Manager) Init() error {
	if _, err := os.Stat(m.path); err == nil {
		return domain.ErrConfigExists
	}

	var (
		content []byte
		err     error
	)
	if isYAML(m.path) {
		content, err = m.Render(domain.NewDefaultConfig())
	} else {
		content, err = renderTemplate(domain.NewDefaultConfig())
	}
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(m.path, content, 0o600)
}

// Render encodes cfg in the format matching the config file extension.
func (m *Manager) Render(cfg *domain.Config) ([]byte, error) {
	fc := fromDomain(cfg)
	if isYAML(m.path) {
		return yaml.Marshal(fc)
	}
	return toml.Marshal(fc)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
