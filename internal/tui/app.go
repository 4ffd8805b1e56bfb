package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nexus/internal/config"
	"nexus/internal/logs"
	kanbanview "nexus/internal/tui/kanban"
	"nexus/internal/tui/shared"
)

// DepsFunc builds fresh collaborators for one board view.
type DepsFunc func() kanbanview.Deps

// AppModel is the root model that dispatches to child views
type AppModel struct {
	cfg         *config.Config
	newDeps     DepsFunc
	currentView ViewType
	pickerView  kanbanview.PickerModel
	boardView   kanbanview.BoardModel
	boardLoaded bool // true when boardView has a board
	showHelp    bool
	width       int
	height      int
	ready       bool
}

// NewAppModel creates the root application model. With a default board
// configured the board opens straight away.
func NewAppModel(cfg *config.Config, newDeps DepsFunc) AppModel {
	m := AppModel{
		cfg:         cfg,
		newDeps:     newDeps,
		currentView: ViewBoardPicker,
		pickerView:  kanbanview.NewPickerModel(cfg.PickerBoards()),
	}
	if cfg.DefaultBoard != "" {
		m.boardView = kanbanview.NewBoardModel(cfg.DefaultBoard, newDeps())
		m.boardLoaded = true
		m.currentView = ViewBoard
	}
	return m
}

func (m AppModel) Init() tea.Cmd {
	if m.boardLoaded {
		return m.boardView.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		contentHeight := msg.Height - 3 // Reserve space for status bar
		m.pickerView.SetSize(msg.Width, contentHeight)
		if m.boardLoaded {
			m.boardView.SetSize(msg.Width, contentHeight)
		}
		return m, nil

	case OpenBoardMsg:
		if m.boardLoaded && msg.BoardID == m.boardView.BoardID() {
			// Reopening the shown board keeps its state and refetches it.
			m.currentView = ViewBoard
			return m, func() tea.Msg { return DataRefreshMsg{} }
		}
		logs.Logger.WithField("board_id", msg.BoardID).Info("opening board")
		m.boardView = kanbanview.NewBoardModel(msg.BoardID, m.newDeps())
		m.boardView.SetSize(m.width, m.height-3)
		m.boardLoaded = true
		m.currentView = ViewBoard
		return m, m.boardView.Init()

	case SwitchViewMsg:
		m.currentView = msg.View
		return m, nil

	case kanbanview.BoardLoadedMsg:
		if msg.Err != nil && m.boardLoaded && msg.BoardID == m.boardView.BoardID() {
			m.pickerView.SetError(msg.Err)
		}

	case tea.KeyMsg:
		// Global keys: ctrl+c always quits
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Dismiss help overlay on any key
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		typing := m.currentView == ViewBoardPicker && m.pickerView.IsTyping() ||
			m.currentView == ViewBoard && m.boardLoaded && m.boardView.IsModal()
		if !typing && msg.String() == "?" {
			m.showHelp = true
			return m, nil
		}
	}

	// Results from the board keep flowing while the picker is shown.
	var cmd tea.Cmd
	switch m.currentView {
	case ViewBoardPicker:
		if _, isKey := msg.(tea.KeyMsg); isKey || !m.boardLoaded {
			m.pickerView, cmd = m.pickerView.Update(msg)
			return m, cmd
		}
		m.boardView, cmd = m.boardView.Update(msg)
		return m, cmd
	case ViewBoard:
		if m.boardLoaded {
			m.boardView, cmd = m.boardView.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var content string
	switch m.currentView {
	case ViewBoardPicker:
		content = m.pickerView.View()
	case ViewBoard:
		if m.boardLoaded {
			content = m.boardView.View()
		} else {
			content = m.renderPlaceholder("Board View", "No board loaded")
		}
	}

	// Status bar
	var statusText string
	switch m.currentView {
	case ViewBoard:
		statusText = "Board view | q/b: back to picker | ?: help | ctrl+c: quit"
	default:
		statusText = "Board picker | ?: help | ctrl+c: quit"
	}

	statusBar := StatusBarStyle.Width(m.width).Render(
		HelpStyle.Render(statusText),
	)

	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func (m AppModel) renderHelpOverlay() string {
	sections := []shared.HelpSection{{
		Title: "Global",
		Binds: []shared.HelpBind{
			{Key: "?", Desc: "Show this help"},
			{Key: "q / b", Desc: "Back to board picker"},
			{Key: "ctrl+c", Desc: "Quit"},
		},
	}}
	sections = append(sections, kanbanview.HelpSections()...)
	return shared.RenderHelpPopup(sections, m.width, m.height)
}

func (m AppModel) renderPlaceholder(title, subtitle string) string {
	titleStr := TitleStyle.Render(title)
	subtitleStr := HelpStyle.Render(subtitle)
	return shared.CenterContent(lipgloss.JoinVertical(lipgloss.Left, "", titleStr, subtitleStr, ""), m.height-3)
}
