package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct{}

// ShowConfigOutput contains the output of the ShowConfig use case.
type ShowConfigOutput struct {
	File      domain.ConfigInfo // Config file info
	Effective string            // Effective config rendered in the file format
	Warnings  []string          // Problems found while loading
}

// ShowConfig displays the effective configuration.
type ShowConfig struct {
	configManager domain.ConfigManager
	config        *domain.Config
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(configManager domain.ConfigManager, config *domain.Config) *ShowConfig {
	return &ShowConfig{
		configManager: configManager,
		config:        config,
	}
}

// Execute renders the effective configuration.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	content, err := uc.configManager.Render(uc.config)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return &ShowConfigOutput{
		File:      uc.configManager.Info(),
		Effective: string(content),
		Warnings:  uc.config.Warnings,
	}, nil
}
