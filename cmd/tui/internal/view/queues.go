package view

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type queueKind int

const (
	queueUnbilled queueKind = iota
	queueOpen
)

type queueState int

const (
	queueStateBrowse queueState = iota
	queueStateConfirmDelete
	queueStateAmount
)

// QueuesModel lists Final estimates awaiting billing and estimates still
// being worked on.
type QueuesModel struct {
	CommonModel
	svc   *estimate.Service
	theme *Theme

	kind    queueKind
	state   queueState
	table   table.Model
	records []estimate.Record
	amount  textinput.Model
	status  string
}

func NewQueuesModel(svc *estimate.Service, theme *Theme) QueuesModel {
	columns := []table.Column{
		{Title: "Type", Width: 8},
		{Title: "Claim", Width: 12},
		{Title: "Client", Width: 20},
		{Title: "Task", Width: 10},
		{Title: "Returned", Width: 17},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Billed", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(theme.Color()).
		Bold(false)
	t.SetStyles(s)

	ti := textinput.New()
	ti.Prompt = "Final amount: "
	ti.Placeholder = "$0.00"
	ti.Width = 14

	m := QueuesModel{svc: svc, theme: theme, table: t, amount: ti}
	m.refresh()

	return m
}

func (m QueuesModel) Title() string { return "Queues" }

func (m QueuesModel) ShortHelp() string {
	switch m.state {
	case queueStateConfirmDelete:
		return "y: delete | n: cancel"
	case queueStateAmount:
		return "Enter: save | Esc: cancel"
	}

	if m.kind == queueUnbilled {
		return "Tab: open work | b: mark billed | x: delete | Esc: back"
	}

	return "Tab: unbilled finals | s: next status | a: amount | x: delete | Esc: back"
}

func (m QueuesModel) Init() tea.Cmd {
	return nil
}

func (m *QueuesModel) refresh() {
	all := m.svc.Records()

	if m.kind == queueUnbilled {
		m.records = dashboard.UnbilledFinalQueue(all)
	} else {
		m.records = dashboard.OpenWorkQueue(all)
	}

	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			string(r.EstimateType),
			r.ClaimNumber,
			r.ClientName,
			r.TaskNumber,
			FormatReturned(r),
			FormatAmount(r),
			string(r.Status),
			FormatBilled(r),
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m QueuesModel) selected() (estimate.Record, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return estimate.Record{}, false
	}

	return m.records[idx], true
}

func (m QueuesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RecordsChangedMsg:
		m.refresh()
		return m, nil
	case queueActionMsg:
		if msg.err != nil {
			m.status = errorText(actionError(msg.err))
		} else {
			m.status = successText(msg.done)
		}

		m.refresh()

		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	case tea.KeyMsg:
		switch m.state {
		case queueStateConfirmDelete:
			return m.updateConfirm(msg)
		case queueStateAmount:
			return m.updateAmount(msg)
		}

		return m.updateBrowse(msg)
	}

	return m, nil
}

func actionError(err error) string {
	if errors.Is(err, estimate.ErrInvalidAmount) {
		return "Invalid amount"
	}

	return fmt.Sprintf("Error: %v", err)
}

func (m QueuesModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rec, ok := m.selected()

	switch msg.String() {
	case "esc":
		return m, Back
	case "tab":
		m.kind = 1 - m.kind
		m.status = ""
		m.table.SetCursor(0)
		m.refresh()

		return m, nil
	case "b":
		if ok && m.kind == queueUnbilled {
			return m, m.actionCmd(fmt.Sprintf("Billed %s.", rec.ClaimNumber), func(s *estimate.Service) error {
				ctx, cancel := DbCtx()
				defer cancel()

				_, err := s.MarkBilled(ctx, rec.ID)

				return err
			})
		}
	case "s":
		if ok && m.kind == queueOpen {
			next := rec.Status.Next()

			return m, m.actionCmd(fmt.Sprintf("%s is now %s.", rec.ClaimNumber, next), func(s *estimate.Service) error {
				ctx, cancel := DbCtx()
				defer cancel()

				_, err := s.SetStatus(ctx, rec.ID, next)

				return err
			})
		}
	case "a":
		if ok && m.kind == queueOpen {
			m.state = queueStateAmount
			m.amount.SetValue(rec.FinalAmount)
			m.amount.Focus()
			m.table.Blur()

			return m, textinput.Blink
		}
	case "x":
		if ok {
			m.state = queueStateConfirmDelete
			m.status = fmt.Sprintf("Delete %s (%s)?", rec.ClaimNumber, rec.ClientName)

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m QueuesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.state = queueStateBrowse
	m.status = ""

	rec, ok := m.selected()
	if !ok || msg.String() != "y" {
		return m, nil
	}

	return m, m.actionCmd(fmt.Sprintf("Deleted %s.", rec.ClaimNumber), func(s *estimate.Service) error {
		ctx, cancel := DbCtx()
		defer cancel()

		return s.Remove(ctx, rec.ID)
	})
}

func (m QueuesModel) updateAmount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = queueStateBrowse
		m.amount.Blur()
		m.table.Focus()

		return m, nil
	case tea.KeyEnter:
		m.state = queueStateBrowse
		m.amount.Blur()
		m.table.Focus()

		rec, ok := m.selected()
		if !ok {
			return m, nil
		}

		text := m.amount.Value()
		if formatted, ok := estimate.FormatAmountText(text); ok {
			text = formatted
		}

		return m, m.actionCmd(fmt.Sprintf("Saved amount for %s.", rec.ClaimNumber), func(s *estimate.Service) error {
			ctx, cancel := DbCtx()
			defer cancel()

			_, err := s.SetFinalAmount(ctx, rec.ID, text)

			return err
		})
	}

	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)

	return m, cmd
}

func (m QueuesModel) View() string {
	title := "Unbilled finals"
	if m.kind == queueOpen {
		title = "Open work"
	}

	parts := []string{
		m.theme.Title(fmt.Sprintf("%s (%d)", title, len(m.records))),
		"",
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	}

	if m.state == queueStateAmount {
		parts = append(parts, m.amount.View())
	}

	if m.status != "" {
		parts = append(parts, m.status)
	}

	parts = append(parts, faint(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

type queueActionMsg struct {
	done string
	err  error
}

func (m QueuesModel) actionCmd(done string, fn func(*estimate.Service) error) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		return queueActionMsg{done: done, err: fn(svc)}
	}
}
