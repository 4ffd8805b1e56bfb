package kanban

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nexus/internal/kanban/models"
)

var errFilterDrag = errors.New("clear the filter before dragging")

type promptKind int

const (
	promptNewCard promptKind = iota
	promptNewList
	promptRenameList
	promptEditTitle
	promptNewLabel
	promptNewChecklist
	promptNewChecklistItem
)

func (k promptKind) title() string {
	switch k {
	case promptNewCard:
		return "New Card"
	case promptNewList:
		return "New List"
	case promptRenameList:
		return "Rename List"
	case promptEditTitle:
		return "Edit Title"
	case promptNewLabel:
		return "New Label (name color)"
	case promptNewChecklist:
		return "New Checklist"
	case promptNewChecklistItem:
		return "Add Checklist Item"
	}
	return ""
}

type selectorKind int

const (
	selectorLabels selectorKind = iota
	selectorMembers
)

func (m BoardModel) openPrompt(kind promptKind, value string) (BoardModel, tea.Cmd) {
	ti := textinput.New()
	ti.CharLimit = 100
	ti.Width = 50
	ti.SetValue(value)
	ti.Focus()
	m.prompt = ti
	m.promptKind = kind
	m.mode = boardModePrompt
	return m, textinput.Blink
}

func (m BoardModel) updatePrompt(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = boardModeNormal
		return m, nil
	case "enter":
		m.mode = boardModeNormal
		return m.submitPrompt(m.prompt.Value())
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m BoardModel) submitPrompt(value string) (BoardModel, tea.Cmd) {
	ops := m.deps.Ops
	switch m.promptKind {
	case promptNewCard:
		list, ok := m.currentList()
		if !ok {
			return m, nil
		}
		edit, err := ops.CreateCard(list.ID, value)
		if err == nil {
			m.selectedCard = len(m.deps.Store.CardsForList(list.ID)) - 1
			m.setCursor()
		}
		return m.runEdit(edit, err)

	case promptNewList:
		edit, err := ops.CreateList(value)
		if err == nil {
			m.reloadBoardState()
			m.selectColumn(len(m.deps.Store.Lists()) - 1)
		}
		return m.runEdit(edit, err)

	case promptRenameList:
		list, ok := m.currentList()
		if !ok {
			return m, nil
		}
		return m.runEdit(ops.RenameList(list.ID, value))

	case promptEditTitle:
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		return m.runEdit(ops.UpdateCard(card.ID, models.CardPatch{Title: &value}))

	case promptNewLabel:
		name, color := splitLabelInput(value)
		return m.runEdit(ops.CreateLabel(name, color))

	case promptNewChecklist:
		card, ok := m.currentCard()
		if !ok {
			return m, nil
		}
		return m.runEdit(ops.AddChecklist(card.ID, value))

	case promptNewChecklistItem:
		card, ok := m.currentCard()
		if !ok || len(card.Checklists) == 0 {
			return m, nil
		}
		last := card.Checklists[len(card.Checklists)-1]
		return m.runEdit(ops.AddChecklistItem(card.ID, last.ID, value))
	}
	return m, nil
}

// splitLabelInput reads "name color"; a single word is a name without color.
func splitLabelInput(value string) (name, color string) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return strings.TrimSpace(value), ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func (m BoardModel) openLabelSelector() (BoardModel, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	meta := m.deps.Store.Metadata()
	if len(meta.Labels) == 0 {
		m.err = fmt.Errorf("board has no labels, press + to create one")
		return m, nil
	}
	items := make([]selectorItem, len(meta.Labels))
	for i, l := range meta.Labels {
		items[i] = selectorItem{ID: l.ID, Name: l.Name, Color: l.Color, Checked: card.HasLabel(l.ID)}
	}
	return m.openSelector(selectorLabels, "Labels: "+card.Title, items), nil
}

func (m BoardModel) openMemberSelector() (BoardModel, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	meta := m.deps.Store.Metadata()
	if len(meta.Members) == 0 {
		m.err = fmt.Errorf("board has no members")
		return m, nil
	}
	items := make([]selectorItem, len(meta.Members))
	for i, u := range meta.Members {
		name := u.FullName
		if name == "" {
			name = u.Username
		}
		items[i] = selectorItem{ID: u.ID, Name: name, Checked: card.HasMember(u.ID)}
	}
	return m.openSelector(selectorMembers, "Members: "+card.Title, items), nil
}

func (m BoardModel) openSelector(kind selectorKind, title string, items []selectorItem) BoardModel {
	sel := NewSelectorModel(title, items)
	sel.width, sel.height = m.width, m.height
	m.selector = &sel
	m.selectorKind = kind
	m.mode = boardModeSelector
	return m
}

func (m BoardModel) updateSelector(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	if m.selector == nil {
		m.mode = boardModeNormal
		return m, nil
	}
	sel, id, done := m.selector.Update(msg)
	m.selector = &sel
	if !done {
		return m, nil
	}
	m.selector = nil
	m.mode = boardModeNormal
	card, ok := m.currentCard()
	if id == "" || !ok {
		return m, nil
	}
	if m.selectorKind == selectorLabels {
		return m.runEdit(m.deps.Ops.ToggleLabel(card.ID, id))
	}
	return m.runEdit(m.deps.Ops.ToggleMember(card.ID, id))
}

type editorFinishedMsg struct {
	cardID string
	path   string
	before string
	err    error
}

// editorCommand returns the user's editor, falling back to vim.
func editorCommand(path string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	return exec.Command(editor, path)
}

// handleEditDescription opens the card description in $EDITOR through a
// temporary markdown file.
func (m BoardModel) handleEditDescription() (BoardModel, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	f, err := os.CreateTemp("", "nexus-card-*.md")
	if err != nil {
		m.err = err
		return m, nil
	}
	path := f.Name()
	if _, err := f.WriteString(card.Description); err != nil {
		f.Close()
		os.Remove(path)
		m.err = err
		return m, nil
	}
	f.Close()

	before := card.Description
	return m, tea.ExecProcess(editorCommand(path), func(err error) tea.Msg {
		return editorFinishedMsg{cardID: card.ID, path: path, before: before, err: err}
	})
}

func (m BoardModel) finishEditor(msg editorFinishedMsg) (BoardModel, tea.Cmd) {
	defer os.Remove(msg.path)
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	content, err := os.ReadFile(msg.path)
	if err != nil {
		m.err = err
		return m, nil
	}
	description := strings.TrimRight(string(content), "\n")
	if description == strings.TrimRight(msg.before, "\n") {
		return m, nil
	}
	return m.runEdit(m.deps.Ops.UpdateCard(msg.cardID, models.CardPatch{Description: &description}))
}
