package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
)

// listEdit holds the form bindings; it lives on the heap so huh keeps
// writing to the same values while the model is copied.
type listEdit struct {
	id           string
	estimateType string
	claim        string
	client       string
	task         string
}

type ListModel struct {
	CommonModel
	svc   *estimate.Service
	theme *Theme

	state   listState
	table   table.Model
	records []estimate.Record
	form    *huh.Form
	edit    *listEdit

	// Filter cycling
	statusFilterIdx int
	typeFilterIdx   int

	status string
}

func NewListModel(svc *estimate.Service, theme *Theme) ListModel {
	columns := []table.Column{
		{Title: "Received", Width: 17},
		{Title: "Type", Width: 8},
		{Title: "Claim", Width: 12},
		{Title: "Client", Width: 20},
		{Title: "Status", Width: 12},
		{Title: "Returned", Width: 17},
		{Title: "Amount", Width: 12},
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

	m := ListModel{svc: svc, theme: theme, table: t}
	m.refreshTable()

	return m
}

func (m ListModel) Title() string { return "All Estimates" }

func (m ListModel) ShortHelp() string {
	if m.state == listStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: edit | s: status filter | y: type filter | r: reload"
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RecordsChangedMsg:
		m.refreshTable()
		return m, nil

	case listSaveMsg:
		m.status = ""
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = listStateBrowse
		m.form = nil
		m.edit = nil
		m.table.Focus()
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.status = "Reloading..."
			return m, m.reloadCmd()
		case "e":
			return m.enterEditMode()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % (len(estimate.Statuses) + 1)
			m.refreshTable()

			return m, nil
		case "y":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % 3
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return m, nil
	}

	rec := m.records[idx]
	m.edit = &listEdit{
		id:           rec.ID,
		estimateType: string(rec.EstimateType),
		claim:        rec.ClaimNumber,
		client:       rec.ClientName,
		task:         rec.TaskNumber,
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("estimate_type").
				Title("Type").
				Options(huh.NewOptions(string(estimate.TypeInitial), string(estimate.TypeFinal))...).
				Value(&m.edit.estimateType),
			huh.NewInput().Key("claim_number").Title("Claim #").Value(&m.edit.claim).Validate(required),
			huh.NewInput().Key("client_name").Title("Client").Value(&m.edit.client).Validate(required),
			huh.NewInput().Key("task_number").Title("Task #").Value(&m.edit.task).Validate(required),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.edit = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	statusLabels := []string{"All"}
	for _, s := range estimate.Statuses {
		statusLabels = append(statusLabels, string(s))
	}

	typeLabels := []string{"All", string(estimate.TypeInitial), string(estimate.TypeFinal)}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [y] Type: %s | %d shown",
		m.theme.Active(statusLabels[m.statusFilterIdx]),
		m.theme.Active(typeLabels[m.typeFilterIdx]),
		len(m.records),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(m.theme.Color()).
			Width(48).
			Render("Edit Estimate\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if err := m.svc.Err(); err != nil {
		content = errorText(err.Error()) + "\n" + content
	}

	if m.status != "" {
		content = faint(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) matches(r estimate.Record) bool {
	if m.statusFilterIdx > 0 && r.Status != estimate.Statuses[m.statusFilterIdx-1] {
		return false
	}

	switch m.typeFilterIdx {
	case 1:
		return r.EstimateType == estimate.TypeInitial
	case 2:
		return r.EstimateType == estimate.TypeFinal
	}

	return true
}

func (m *ListModel) refreshTable() {
	m.records = nil

	for _, r := range m.svc.Records() {
		if m.matches(r) {
			m.records = append(m.records, r)
		}
	}

	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			strings.TrimSpace(r.DateReceived + " " + r.TimeReceived),
			string(r.EstimateType),
			r.ClaimNumber,
			r.ClientName,
			string(r.Status),
			FormatReturned(r),
			FormatAmount(r),
			FormatBilled(r),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type listSaveMsg struct {
	err error
}

func (m ListModel) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return listSaveMsg{err: m.svc.Load(ctx)}
	}
}

func (m ListModel) saveCmd() tea.Cmd {
	edit := m.edit
	if edit == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		t := estimate.Type(edit.estimateType)
		claim := strings.TrimSpace(edit.claim)
		client := strings.TrimSpace(edit.client)
		task := strings.TrimSpace(edit.task)

		_, err := m.svc.Update(ctx, edit.id, estimate.Patch{
			EstimateType: &t,
			ClaimNumber:  &claim,
			ClientName:   &client,
			TaskNumber:   &task,
		})

		return listSaveMsg{err: err}
	}
}
