// Package cli provides the command-line interface for issue-harvest.
package cli

import (
	"errors"
	"fmt"

	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupHarvest = "harvest"
	groupSetup   = "setup"
)

// annotationNoConfig marks commands that must run without loading the config.
const annotationNoConfig = "harvest/no-config"

// errAborted is returned when some collections could not be fetched.
var errAborted = errors.New("some collections were aborted")

// NewRootCommand creates the root command for harvest.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "harvest",
		Short: "Resumable issue tracker harvester",
		Long: `harvest downloads every issue of the configured issue tracker projects
into append-only JSONL logs, checkpointing progress after each page so an
interrupted run resumes where it stopped.

The raw logs can then be transformed into training documents with
summarization, classification and question answering views.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, ok := cmd.Annotations[annotationNoConfig]; ok {
				return nil
			}
			if err := c.Load(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", warningStyle.Render("Warning:"), w)
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.Close()
		},
	}

	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "Configuration file (.toml, .yaml or .yml)")

	root.AddGroup(
		&cobra.Group{ID: groupHarvest, Title: "Harvest Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	fetchCmd := newFetchCommand(c)
	fetchCmd.GroupID = groupHarvest

	transformCmd := newTransformCommand(c)
	transformCmd.GroupID = groupHarvest

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupHarvest

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupHarvest

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(fetchCmd, transformCmd, runCmd, statusCmd, configCmd)
	return root
}
