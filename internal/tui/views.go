package tui

import "nexus/internal/tui/messages"

// Re-export types from messages package for convenience
type ViewType = messages.ViewType

const (
	ViewBoardPicker = messages.ViewBoardPicker
	ViewBoard       = messages.ViewBoard
)

type SwitchViewMsg = messages.SwitchViewMsg
type OpenBoardMsg = messages.OpenBoardMsg
type DataRefreshMsg = messages.DataRefreshMsg
