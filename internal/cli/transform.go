package cli

import (
	"fmt"
	"io"

	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/spf13/cobra"
)

// newTransformCommand creates the transform command.
func newTransformCommand(c *app.Container) *cobra.Command {
	var opts struct {
		collections []string
		workers     int
		noProgress  bool
	}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform raw logs into training documents",
		Long: `Transform every <data_dir>/<id>_issues.jsonl into <output_dir>/<id>_transformed.jsonl.

Malformed lines are logged and skipped. Output files are replaced as a whole
when a raw log has been fully processed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("workers") {
				if opts.workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				c.AppConfig.Transform.Workers = opts.workers
			}
			return runTransform(cmd, c, opts.collections, !opts.noProgress)
		},
	}

	cmd.Flags().StringSliceVar(&opts.collections, "collection", nil, "Restrict to these collections (repeatable)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Files transformed concurrently (overrides transform.workers)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Do not print per-file progress")

	return cmd
}

func runTransform(cmd *cobra.Command, c *app.Container, collections []string, showProgress bool) error {
	uc := c.TransformLogsUseCase(newProgress(cmd.ErrOrStderr(), showProgress))
	out, err := uc.Execute(cmd.Context(), usecase.TransformLogsInput{Collections: collections})
	if err != nil {
		return err
	}
	printTransformSummary(cmd.OutOrStdout(), out)
	return nil
}

func printTransformSummary(w io.Writer, out *usecase.TransformLogsOutput) {
	if len(out.Files) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("No raw logs to transform."))
		return
	}
	for _, f := range out.Files {
		_, _ = fmt.Fprintf(w, "%-10s %d/%d records -> %s", f.Collection, f.Stats.Written, f.Stats.Lines, f.Path)
		if f.Stats.Skipped > 0 {
			_, _ = fmt.Fprint(w, warningStyle.Render(fmt.Sprintf(" (%d skipped)", f.Stats.Skipped)))
		}
		_, _ = fmt.Fprintln(w)
	}
}
