package view

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/preferences"
)

type WelcomeModel struct {
	CommonModel
	prefs *preferences.Service
	theme *Theme
	loc   *time.Location

	quote  string
	status string
}

func NewWelcomeModel(prefs *preferences.Service, theme *Theme, loc *time.Location) WelcomeModel {
	return WelcomeModel{prefs: prefs, theme: theme, loc: loc}
}

func (m WelcomeModel) Title() string { return "Welcome" }

func (m WelcomeModel) ShortHelp() string {
	return "Enter/Esc: continue | a: accent | d: don't show again"
}

func (m WelcomeModel) Init() tea.Cmd {
	return m.loadQuoteCmd()
}

func (m WelcomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case quoteMsg:
		m.quote = msg.quote
	case prefSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		if msg.dismissed {
			return m, Back
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return m, Back
		case "a":
			next := nextAccent(m.theme.Accent())
			m.theme.Set(next)

			return m, m.saveAccentCmd(next)
		case "d":
			return m, m.dismissCmd()
		}
	}

	return m, nil
}

func nextAccent(a preferences.Accent) preferences.Accent {
	for i, acc := range preferences.Accents {
		if acc == a {
			return preferences.Accents[(i+1)%len(preferences.Accents)]
		}
	}

	return preferences.DefaultAccent
}

func (m WelcomeModel) View() string {
	quote := m.quote
	if quote == "" {
		quote = "..."
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title("Tally"),
		"",
		lipgloss.NewStyle().Italic(true).Render(quote),
		"",
		fmt.Sprintf("Accent: %s", m.theme.Active(string(m.theme.Accent()))),
		"",
		faint(m.ShortHelp()),
	)

	if m.status != "" {
		body += "\n\n" + errorText(m.status)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Color()).
		Render(body)
}

type quoteMsg struct {
	quote string
}

type prefSavedMsg struct {
	dismissed bool
	err       error
}

func (m WelcomeModel) loadQuoteCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return quoteMsg{quote: m.prefs.DailyQuote(ctx, time.Now().In(m.loc))}
	}
}

func (m WelcomeModel) saveAccentCmd(a preferences.Accent) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return prefSavedMsg{err: m.prefs.SetAccent(ctx, a)}
	}
}

func (m WelcomeModel) dismissCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.prefs.DismissWelcome(ctx); err != nil {
			return prefSavedMsg{err: err}
		}

		return prefSavedMsg{dismissed: true}
	}
}
