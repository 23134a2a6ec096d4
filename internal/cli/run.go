package cli

import (
	"errors"

	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/spf13/cobra"
)

// newRunCommand creates the run command.
func newRunCommand(c *app.Container) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, then transform",
		Long: `Run fetch followed by transform.

Collections aborted during fetch do not prevent the transform step; the
command still exits with an error afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetchErr := runFetch(cmd, c, nil, !noProgress)
			if fetchErr != nil && !errors.Is(fetchErr, errAborted) {
				return fetchErr
			}
			if err := runTransform(cmd, c, nil, !noProgress); err != nil {
				return err
			}
			return fetchErr
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not print progress")

	return cmd
}
