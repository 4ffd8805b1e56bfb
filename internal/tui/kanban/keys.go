package kanban

import (
	"github.com/charmbracelet/bubbles/key"

	"nexus/internal/tui/shared"
)

type boardKeyMap struct {
	Left        key.Binding
	Right       key.Binding
	Up          key.Binding
	Down        key.Binding
	GrabCard    key.Binding
	GrabList    key.Binding
	Drop        key.Binding
	Cancel      key.Binding
	Description key.Binding
	NewCard     key.Binding
	NewList     key.Binding
	RenameList  key.Binding
	EditTitle   key.Binding
	Complete    key.Binding
	Labels      key.Binding
	NewLabel    key.Binding
	Members     key.Binding
	Checklist   key.Binding
	ChecklistIt key.Binding
	Filter      key.Binding
	Reload      key.Binding
	Back        key.Binding
}

var boardKeys = boardKeyMap{
	Left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/l", "previous / next list")),
	Right:       key.NewBinding(key.WithKeys("l", "right")),
	Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "previous / next card")),
	Down:        key.NewBinding(key.WithKeys("j", "down")),
	GrabCard:    key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space/m", "grab card")),
	GrabList:    key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "grab list")),
	Drop:        key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "drop")),
	Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
	Description: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit description in $EDITOR")),
	NewCard:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new card")),
	NewList:     key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new list")),
	RenameList:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename list")),
	EditTitle:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit card title")),
	Complete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle completed")),
	Labels:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "toggle labels")),
	NewLabel:    key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "new board label")),
	Members:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "assign members")),
	Checklist:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "new checklist")),
	ChecklistIt: key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "add checklist item")),
	Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter cards")),
	Reload:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload board")),
	Back:        key.NewBinding(key.WithKeys("q", "b", "esc"), key.WithHelp("q/b", "back to picker")),
}

// HelpSections lists the board keys for the help popup.
func HelpSections() []shared.HelpSection {
	k := boardKeys
	return []shared.HelpSection{
		{Title: "Navigation", Binds: []shared.HelpBind{shared.Bind(k.Left), shared.Bind(k.Up), shared.Bind(k.Filter), shared.Bind(k.Reload), shared.Bind(k.Back)}},
		{Title: "Drag and drop", Binds: []shared.HelpBind{
			shared.Bind(k.GrabCard), shared.Bind(k.GrabList),
			{Key: "h/l", Desc: "carry to previous / next list"},
			{Key: "j/k", Desc: "move drop slot"},
			shared.Bind(k.Drop), shared.Bind(k.Cancel),
		}},
		{Title: "Editing", Binds: []shared.HelpBind{
			shared.Bind(k.NewCard), shared.Bind(k.NewList), shared.Bind(k.RenameList), shared.Bind(k.EditTitle), shared.Bind(k.Description),
			shared.Bind(k.Complete), shared.Bind(k.Labels), shared.Bind(k.NewLabel), shared.Bind(k.Members), shared.Bind(k.Checklist), shared.Bind(k.ChecklistIt),
		}},
	}
}
