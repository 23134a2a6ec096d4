package cli

import (
	"fmt"
	"io"

	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/spf13/cobra"
)

// newFetchCommand creates the fetch command.
func newFetchCommand(c *app.Container) *cobra.Command {
	var opts struct {
		collections []string
		noProgress  bool
	}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch issues into the raw logs",
		Long: `Fetch every configured collection page by page into <data_dir>/<id>_issues.jsonl.

Progress is checkpointed after each page. Completed collections are skipped,
so running fetch again only resumes unfinished collections.`,
		Example: `  # Fetch all configured collections
  harvest fetch

  # Fetch only SPARK
  harvest fetch --collection SPARK`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, c, opts.collections, !opts.noProgress)
		},
	}

	cmd.Flags().StringSliceVar(&opts.collections, "collection", nil, "Restrict to these collections (repeatable)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Do not print per-page progress")

	return cmd
}

// runFetch executes the harvest and prints its summary. Aborted collections
// are reported through errAborted once everything else ran.
func runFetch(cmd *cobra.Command, c *app.Container, collections []string, showProgress bool) error {
	uc := c.HarvestUseCase(newProgress(cmd.ErrOrStderr(), showProgress))
	out, err := uc.Execute(cmd.Context(), usecase.HarvestInput{Collections: collections})
	if out != nil {
		printHarvestSummary(cmd.OutOrStdout(), out)
	}
	if err != nil {
		return err
	}
	if aborted := out.Aborted(); len(aborted) > 0 {
		return fmt.Errorf("%w: %d of %d", errAborted, len(aborted), len(out.Collections))
	}
	return nil
}

func printHarvestSummary(w io.Writer, out *usecase.HarvestOutput) {
	if out.StateWarning != nil {
		_, _ = fmt.Fprintf(w, "%s %v\n", warningStyle.Render("Warning:"), out.StateWarning)
	}
	for _, s := range out.Collections {
		var state string
		switch {
		case s.Skipped:
			state = mutedStyle.Render("already complete")
		case s.AbortErr != nil:
			state = errorStyle.Render("aborted: " + s.AbortErr.Error())
		case s.Completed:
			state = successStyle.Render("complete")
		default:
			state = warningStyle.Render("incomplete")
		}
		_, _ = fmt.Fprintf(w, "%-10s +%-6d offset %-7d %s\n", s.Collection, s.Fetched, s.StartAt, state)
	}
}
