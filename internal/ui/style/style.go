// Package style provides shared UI styling primitives including brand colors
// and icons for the CLI output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
)

var (
	// Header styles table headers.
	Header = lipgloss.NewStyle().Foreground(Iris).Bold(true).Padding(0, 1)
	// Cell styles table cells.
	Cell = lipgloss.NewStyle().Padding(0, 1)
	// Border styles table borders.
	Border = lipgloss.NewStyle().Foreground(Slate)

	current  = lipgloss.NewStyle().Foreground(Green)
	outdated = lipgloss.NewStyle().Foreground(Yellow)
	missing  = lipgloss.NewStyle().Foreground(Red).Bold(true)
)

// State renders an instance state with its icon.
func State(state string) string {
	switch state {
	case "current":
		return current.Render(Check + " " + state)
	case "outdated":
		return outdated.Render(Tilde + " " + state)
	case "missing":
		return missing.Render(Cross + " " + state)
	default:
		return Warning + " " + state
	}
}
