package kanban

import (
	"github.com/charmbracelet/lipgloss"

	"nexus/internal/tui/theme"
)

const (
	// Layout constants
	columnWidth             = 40
	columnPaddingHorizontal = 2
	cardPaddingHorizontal   = 1
	cardBorderWidth         = 1
)

var (
	// Title styles
	titleStyle = theme.Title.Padding(0, 1)

	// Column styles
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, columnPaddingHorizontal).
			Width(columnWidth)

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.Primary).
				Align(lipgloss.Center)

	selectedColumnTitleStyle = lipgloss.NewStyle().
					Bold(true).
					Foreground(theme.Warning).
					Background(theme.Surface).
					Underline(true).
					Align(lipgloss.Center)

	selectedColumnStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(theme.BorderFocused).
				Padding(1, columnPaddingHorizontal).
				Width(columnWidth)

	// A list being dragged, and the list it would land on.
	draggedColumnStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(theme.Warning).
				Padding(1, columnPaddingHorizontal).
				Width(columnWidth)

	dropColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Success).
			Padding(1, columnPaddingHorizontal).
			Width(columnWidth)

	// Card styles
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(theme.Border).
			Padding(0, cardPaddingHorizontal).
			MarginBottom(1)

	selectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), false, false, false, true).
				BorderForeground(theme.BorderFocused).
				Background(theme.Surface).
				Padding(0, cardPaddingHorizontal).
				MarginBottom(1).
				Bold(true)

	moveSelectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), false, false, false, true).
				BorderForeground(theme.Warning).
				Background(lipgloss.Color("54")).
				Padding(0, cardPaddingHorizontal).
				MarginBottom(1).
				Bold(true)

	dropMarkerStyle = lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true)

	cardMemberStyle = lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Italic(true)

	cardPreviewStyle = lipgloss.NewStyle().
				Foreground(theme.TextMuted)

	// Help styles
	helpStyle = theme.Muted.Padding(1, 2)

	// List styles
	listItemStyle = lipgloss.NewStyle().
			Foreground(theme.Text).
			Padding(0, 2)

	selectedListItemStyle = lipgloss.NewStyle().
				Foreground(theme.Warning).
				Bold(true).
				Padding(0, 2)

	// Message styles
	errorStyle   = theme.Error
	warningStyle = theme.Warn
	successStyle = theme.Ok

	// Selector modal styles
	selectorBoxStyle   = theme.ModalBox.Width(50)
	selectorTitleStyle = theme.ModalTitle

	// Prompt modal styles
	promptBoxStyle   = theme.ModalBox.Width(60)
	promptTitleStyle = theme.ModalTitle.Align(lipgloss.Center)

	// Scroll indicator style
	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Primary).
				Italic(true).
				Align(lipgloss.Center)

	// Path style for dimmed secondary text
	pathStyle = theme.Muted

	// Filter indicator style
	filterIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Warning).
				Bold(true)
)

// labelStyle renders a label chip in the label's color.
func labelStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.LabelColor(color))
}
