package messages

import tea "github.com/charmbracelet/bubbletea"

// ViewType represents the different views in the application
type ViewType int

const (
	ViewBoardPicker ViewType = iota
	ViewBoard
)

// SwitchViewMsg is sent by child views to switch to a different view
type SwitchViewMsg struct {
	View ViewType
}

// OpenBoardMsg requests loading a board by id and showing it
type OpenBoardMsg struct {
	BoardID string
}

// DataRefreshMsg asks the board view to refetch its board
type DataRefreshMsg struct{}

func SwitchView(v ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: v}
	}
}

func OpenBoard(boardID string) tea.Cmd {
	return func() tea.Msg {
		return OpenBoardMsg{BoardID: boardID}
	}
}
