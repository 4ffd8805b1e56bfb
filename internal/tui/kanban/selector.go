package kanban

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// selectorItem is one row of a selector: a label or a member.
type selectorItem struct {
	ID      string
	Name    string
	Color   string
	Checked bool
}

// SelectorModel is a single-select list for picking a label or member to
// toggle on the selected card.
type SelectorModel struct {
	title  string
	items  []selectorItem
	cursor int
	width  int
	height int
}

func NewSelectorModel(title string, items []selectorItem) SelectorModel {
	return SelectorModel{title: title, items: items}
}

// Empty returns true when there is nothing to choose from.
func (m SelectorModel) Empty() bool {
	return len(m.items) == 0
}

// Update handles key events. Returns (model, selectedID, done).
// selectedID is non-empty only on enter; done is true on enter or esc.
func (m SelectorModel) Update(msg tea.KeyMsg) (SelectorModel, string, bool) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter", " ":
		if len(m.items) > 0 && m.cursor < len(m.items) {
			return m, m.items[m.cursor].ID, true
		}
		return m, "", true
	case "esc", "q":
		return m, "", true
	}
	return m, "", false
}

// View renders the selector as a centered modal.
func (m SelectorModel) View() string {
	var lines []string

	lines = append(lines, selectorTitleStyle.Render(m.title))
	lines = append(lines, "")

	for i, item := range m.items {
		style := listItemStyle
		prefix := "  "
		if i == m.cursor {
			style = selectedListItemStyle
			prefix = "► "
		}
		check := "[ ] "
		if item.Checked {
			check = "[x] "
		}
		name := item.Name
		if item.Color != "" {
			name = labelStyle(item.Color).Render(name)
		}
		lines = append(lines, style.Render(prefix+check)+name)
	}

	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("j/k: navigate • enter: toggle • esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	boxed := selectorBoxStyle.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxed)
}
