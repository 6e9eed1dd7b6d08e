package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/preferences"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// RecordsChangedMsg is sent whenever the session list may have changed
// outside the current view, e.g. after a change notification.
type RecordsChangedMsg struct{}

// Theme is shared by every view so an accent change shows everywhere.
type Theme struct {
	accent preferences.Accent
}

func NewTheme(a preferences.Accent) *Theme {
	return &Theme{accent: a}
}

func (t *Theme) Set(a preferences.Accent) { t.accent = a }

func (t *Theme) Accent() preferences.Accent { return t.accent }

func (t *Theme) Color() lipgloss.Color {
	switch t.accent {
	case preferences.AccentGreen:
		return lipgloss.Color("42")
	case preferences.AccentPurple:
		return lipgloss.Color("135")
	}

	return lipgloss.Color("39")
}

func (t *Theme) Title(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Color()).Render(s)
}

func (t *Theme) Active(s string) string {
	return lipgloss.NewStyle().Foreground(t.Color()).Render(s)
}

func errorText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func successText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(s)
}

func faint(s string) string {
	return lipgloss.NewStyle().Faint(true).Render(s)
}
