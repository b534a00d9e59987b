// Package view holds the operator console screens.
package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// View is a console screen reachable from the main menu.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

var (
	_ View = ReviewModel{}
	_ View = PortfolioModel{}
	_ View = ImportModel{}
)

// CommonModel carries the terminal size shared by every screen.
type CommonModel struct {
	Width  int
	Height int
}

// BackMsg asks the console to return to the main menu.
type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
