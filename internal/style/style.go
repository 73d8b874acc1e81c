package style

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Catppuccin colors
var (
	red      = lipgloss.Color("#ed8796")
	green    = lipgloss.Color("#a6da95")
	teal     = lipgloss.Color("#8bd5ca")
	lavender = lipgloss.Color("#b7bdf8")
	text     = lipgloss.Color("#cad3f5")
	overlay0 = lipgloss.Color("#6e738d")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lavender).
			Bold(true)

	SuccessTextStyle = lipgloss.NewStyle().
				Foreground(green)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(red)

	HintTextStyle = lipgloss.NewStyle().
			Foreground(overlay0).
			Italic(true)

	// Table styles
	HeaderStyle = lipgloss.NewStyle().
			Foreground(teal).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(overlay0).
				Italic(true).
				Padding(0, 1)

	BorderStyle = lipgloss.NewStyle().
			Foreground(overlay0)
)

// Render renders text with s for the terminal behind w, so a redirected
// stream never receives escape sequences detected for another one.
func Render(w io.Writer, s lipgloss.Style, text string) string {
	return s.Renderer(lipgloss.NewRenderer(w)).Render(text)
}
