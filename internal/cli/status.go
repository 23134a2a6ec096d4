package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/runoshun/issue-harvest/internal/app"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/spf13/cobra"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show fetch progress per collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowStatusUseCase().Execute(cmd.Context(), usecase.ShowStatusInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.StateWarning != nil {
				_, _ = fmt.Fprintf(w, "%s %v\n", warningStyle.Render("Warning:"), out.StateWarning)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(mutedStyle).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				}).
				Headers("COLLECTION", "OFFSET", "STATE")
			for _, s := range out.Collections {
				t.Row(s.Collection, strconv.Itoa(s.StartAt), statusLabel(s))
			}
			_, _ = fmt.Fprintln(w, t.Render())
			return nil
		},
	}
}

func statusLabel(s usecase.CollectionStatus) string {
	var label string
	switch {
	case s.Completed:
		label = successStyle.Render("completed")
	case s.Tracked:
		label = warningStyle.Render("in progress")
	default:
		label = mutedStyle.Render("pending")
	}
	if !s.Configured {
		label += mutedStyle.Render(" (not configured)")
	}
	return label
}
