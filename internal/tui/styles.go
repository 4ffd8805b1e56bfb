package tui

import "nexus/internal/tui/theme"

var (
	// Title styles
	TitleStyle = theme.Title

	// Status bar
	StatusBarStyle = theme.StatusBar

	// Help text
	HelpStyle = theme.HelpHint
)
