package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/runoshun/issue-harvest/internal/domain"
)

// Ensure progressReporter implements domain.Progress.
var _ domain.Progress = (*progressReporter)(nil)

// progressReporter prints one bar line per fetched page and one line per
// transformed file.
type progressReporter struct {
	w   io.Writer
	bar progress.Model
	mu  sync.Mutex
}

// newProgress returns a reporter writing to w, or a no-op when disabled.
func newProgress(w io.Writer, enabled bool) domain.Progress {
	if !enabled {
		return domain.NopProgress{}
	}
	return &progressReporter{
		w: w,
		bar: progress.New(
			progress.WithSolidFill(string(colors.Primary)),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

func (p *progressReporter) PageFetched(collection string, fetched, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%-10s %s %s\n", collection, p.bar.ViewAs(ratio(fetched, total)),
		mutedStyle.Render(fmt.Sprintf("%d/%d", fetched, total)))
}

func (p *progressReporter) FileTransformed(collection string, stats domain.TransformStats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("%-10s %s %d records", collection, successStyle.Render("transformed"), stats.Written)
	if stats.Skipped > 0 {
		line += warningStyle.Render(fmt.Sprintf(" (%d skipped)", stats.Skipped))
	}
	_, _ = fmt.Fprintln(p.w, line)
}

// ratio returns fetched/total clamped to [0, 1].
func ratio(fetched, total int) float64 {
	if total <= 0 {
		return 1
	}
	r := float64(fetched) / float64(total)
	return min(max(r, 0), 1)
}
