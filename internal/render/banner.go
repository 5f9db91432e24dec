package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Version is overridden at build time via -ldflags "-X .../internal/render.Version=x.y.z".
var Version = "dev"

var (
	primary = lipgloss.Color("#7D56F4")
	muted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(primary).
			Padding(0, 2)

	subtitleStyle = lipgloss.NewStyle().Foreground(muted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(primary).
			Padding(1, 3)
)

// Banner prints the intro shown before the interactive prompt.
func Banner(w io.Writer) {
	body := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("stackprint "+Version),
		"",
		subtitleStyle.Render("Web technology fingerprinting from a single GET request"),
	)
	fmt.Fprintln(w, boxStyle.Render(body))
	fmt.Fprintln(w)
}
