package kanban

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"nexus/internal/tui/messages"
	"nexus/internal/tui/shared"
)

type pickerMode int

const (
	modeList pickerMode = iota
	modeSearch
	modeOpen
)

// PickerModel chooses the board to open: one of the configured boards, or
// any board id typed in.
type PickerModel struct {
	boards      []string
	filtered    []int // indices into boards
	selected    int
	mode        pickerMode
	textInput   textinput.Model
	searchQuery string
	width       int
	height      int
	err         error
}

func NewPickerModel(boards []string) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "Enter board id..."
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	m := PickerModel{
		boards:    boards,
		mode:      modeList,
		textInput: ti,
	}
	m.applyFilter()
	return m
}

// SetSize updates the view dimensions
func (m *PickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError shows why the last board could not be opened.
func (m *PickerModel) SetError(err error) {
	m.err = err
}

// IsTyping returns true when the picker has an active text input
func (m PickerModel) IsTyping() bool {
	return m.mode == modeOpen || m.mode == modeSearch
}

// HintText returns the raw hint string for the current picker mode.
func (m PickerModel) HintText() string {
	switch m.mode {
	case modeSearch:
		return "type to filter  enter:confirm  esc:cancel"
	case modeOpen:
		return "enter:open  esc:cancel"
	default:
		return "j/k:navigate  /:search  enter:open  o:open by id  ?:help  q:quit"
	}
}

func (m *PickerModel) applyFilter() {
	if m.searchQuery == "" {
		m.filtered = make([]int, len(m.boards))
		for i := range m.boards {
			m.filtered[i] = i
		}
	} else {
		matches := fuzzy.Find(m.searchQuery, m.boards)
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = max(0, len(m.filtered)-1)
	}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles picker events, returns (PickerModel, tea.Cmd) as a child view
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeOpen:
			return m.updateOpen(msg)
		}
	}
	return m, nil
}

func (m PickerModel) updateList(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.applyFilter()
		}
		return m, nil

	case "/":
		m.mode = modeSearch
		m.textInput.Placeholder = "Search boards..."
		m.textInput.SetValue(m.searchQuery)
		m.textInput.Focus()
		return m, textinput.Blink

	case "j", "down":
		if len(m.filtered) > 0 && m.selected < len(m.filtered)-1 {
			m.selected++
		}

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}

	case "o":
		return m.startOpen()

	case "enter":
		if len(m.filtered) == 0 {
			return m.startOpen()
		}
		m.err = nil
		return m, messages.OpenBoard(m.boards[m.filtered[m.selected]])
	}

	return m, nil
}

func (m PickerModel) startOpen() (PickerModel, tea.Cmd) {
	m.mode = modeOpen
	m.textInput.Placeholder = "Enter board id..."
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m, textinput.Blink
}

func (m PickerModel) updateSearch(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.searchQuery = ""
		m.textInput.SetValue("")
		m.applyFilter()
		return m, nil

	case "enter":
		m.searchQuery = m.textInput.Value()
		m.mode = modeList
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.searchQuery = m.textInput.Value()
	m.applyFilter()
	return m, cmd
}

func (m PickerModel) updateOpen(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		boardID := strings.TrimSpace(m.textInput.Value())
		if boardID == "" {
			m.err = fmt.Errorf("board id cannot be empty")
			return m, nil
		}
		m.err = nil
		m.mode = modeList
		m.textInput.SetValue("")
		return m, messages.OpenBoard(boardID)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	switch m.mode {
	case modeSearch:
		return m.viewSearch()
	case modeOpen:
		return m.viewOpen()
	default:
		return m.viewList()
	}
}

func (m PickerModel) viewSearch() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Search Boards"))
	lines = append(lines, "")
	lines = append(lines, "  "+m.textInput.View())
	lines = append(lines, "")

	// Show live results
	if len(m.filtered) > 0 {
		show := min(8, len(m.filtered))
		for i := 0; i < show; i++ {
			prefix := "  "
			if i == m.selected {
				prefix = "► "
			}
			lines = append(lines, listItemStyle.Render(prefix+m.boards[m.filtered[i]]))
		}
		if len(m.filtered) > show {
			lines = append(lines, pathStyle.Render(fmt.Sprintf("  ... %d more", len(m.filtered)-show)))
		}
	} else {
		lines = append(lines, listItemStyle.Render("  No matches"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m PickerModel) viewList() string {
	var lines []string

	lines = append(lines, titleStyle.Render("Board Picker"))
	lines = append(lines, "")

	if m.searchQuery != "" {
		lines = append(lines, filterIndicatorStyle.Render("  Filter: ")+pathStyle.Render(m.searchQuery))
		lines = append(lines, "")
	}

	if len(m.filtered) == 0 {
		if len(m.boards) == 0 {
			lines = append(lines, listItemStyle.Render("No boards configured. Press 'o' to open one by id."))
		} else {
			lines = append(lines, listItemStyle.Render("No matching boards."))
		}
		lines = append(lines, "")
	} else {
		for i, idx := range m.filtered {
			style := listItemStyle
			prefix := "  "
			if i == m.selected {
				style = selectedListItemStyle
				prefix = "► "
			}
			lines = append(lines, style.Render(prefix+m.boards[idx]))
		}
		lines = append(lines, "")
	}

	if m.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		lines = append(lines, "")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	content = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, content)
	hints := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, helpStyle.Render(m.HintText()))
	return shared.CenterWithBottomHints(content, hints, m.height)
}

func (m PickerModel) viewOpen() string {
	var lines []string

	lines = append(lines, titleStyle.Render("Open Board"))
	lines = append(lines, "")
	lines = append(lines, m.textInput.View())
	lines = append(lines, "")

	if m.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		lines = append(lines, "")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
