package theme

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Color palette: ANSI 0-15 + one 256-color accent
// ---------------------------------------------------------------------------

var (
	Text      = lipgloss.Color("7")
	TextMuted = lipgloss.Color("8")

	Primary       = lipgloss.Color("4")   // blue
	Secondary     = lipgloss.Color("6")   // cyan
	Accent        = lipgloss.Color("5")   // magenta
	Success       = lipgloss.Color("2")   // green
	Warning       = lipgloss.Color("3")   // yellow
	Danger        = lipgloss.Color("1")   // red
	Surface       = lipgloss.Color("236") // dark bg
	Border        = lipgloss.Color("8")   // dim
	BorderFocused = lipgloss.Color("4")   // blue
)

// ---------------------------------------------------------------------------
// Semantic text styles
// ---------------------------------------------------------------------------

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Subtitle = lipgloss.NewStyle().Bold(true).Foreground(Secondary)
	Muted    = lipgloss.NewStyle().Foreground(TextMuted)

	Error = lipgloss.NewStyle().Bold(true).Foreground(Danger)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(Warning)
	Ok    = lipgloss.NewStyle().Bold(true).Foreground(Success)

	Done = lipgloss.NewStyle().Foreground(TextMuted).Strikethrough(true)
)

// ---------------------------------------------------------------------------
// Reusable component helpers
// ---------------------------------------------------------------------------

var (
	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(Warning)

	ModalHelp = lipgloss.NewStyle().Foreground(TextMuted)

	StatusBar = lipgloss.NewStyle().
			Foreground(TextMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	HelpHint = lipgloss.NewStyle().Foreground(TextMuted)
)

// labelColors maps the board API's label color names onto the palette.
var labelColors = map[string]lipgloss.Color{
	"red":    Danger,
	"green":  Success,
	"yellow": Warning,
	"orange": lipgloss.Color("208"),
	"blue":   Primary,
	"purple": Accent,
	"sky":    Secondary,
}

// LabelColor returns the terminal color for a label color name. Hex values
// pass through; other unknown names fall back to Accent.
func LabelColor(name string) lipgloss.Color {
	if c, ok := labelColors[name]; ok {
		return c
	}
	if len(name) == 7 && name[0] == '#' {
		return lipgloss.Color(name)
	}
	return Accent
}
