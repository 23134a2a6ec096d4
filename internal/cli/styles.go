package cli

import "github.com/charmbracelet/lipgloss"

// colors is the palette shared by command output.
var colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colors.Primary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colors.Muted)
	errorStyle   = lipgloss.NewStyle().Foreground(colors.Error)
	successStyle = lipgloss.NewStyle().Foreground(colors.Success)
	warningStyle = lipgloss.NewStyle().Foreground(colors.Warning)
)
