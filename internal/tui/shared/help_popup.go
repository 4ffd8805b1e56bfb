package shared

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"nexus/internal/tui/theme"
)

// HelpBind is one key and what it does.
type HelpBind struct {
	Key  string
	Desc string
}

// Bind reads the help text of a key binding.
func Bind(b key.Binding) HelpBind {
	h := b.Help()
	return HelpBind{Key: h.Key, Desc: h.Desc}
}

// HelpSection groups related binds under a title.
type HelpSection struct {
	Title string
	Binds []HelpBind
}

const helpKeyWidth = 14

var (
	helpSectionStyle = theme.Subtitle.Foreground(theme.Primary)
	helpKeyStyle     = lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary).Width(helpKeyWidth)
	helpDescStyle    = lipgloss.NewStyle().Foreground(theme.Text)
	helpBoxStyle     = theme.ModalBox
	helpDismissStyle = theme.ModalHelp
)

func renderSection(section HelpSection) string {
	var b strings.Builder
	b.WriteString(helpSectionStyle.Render(section.Title))
	for _, bind := range section.Binds {
		b.WriteString("\n  ")
		b.WriteString(helpKeyStyle.Render(bind.Key))
		b.WriteString(helpDescStyle.Render(bind.Desc))
	}
	return b.String()
}

// RenderHelpPopup renders the sections in a centered box. Sections that do
// not fit the height in one column are laid out side by side.
func RenderHelpPopup(sections []HelpSection, width, height int) string {
	rendered := make([]string, len(sections))
	total := 0
	for i, s := range sections {
		rendered[i] = renderSection(s)
		total += lipgloss.Height(rendered[i]) + 1
	}

	// Box border, padding and the dismiss line.
	const chrome = 6
	var body string
	if height <= 0 || total+chrome <= height || len(rendered) < 2 {
		body = strings.Join(rendered, "\n\n")
	} else {
		half := (len(rendered) + 1) / 2
		left := strings.Join(rendered[:half], "\n\n")
		right := strings.Join(rendered[half:], "\n\n")
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)
	}

	box := helpBoxStyle.Render(body + "\n\n" + helpDismissStyle.Render("Press any key to close"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
