package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type dashFocus int

const (
	focusCounter dashFocus = iota
	focusDay
	focusWeek
	focusMonth
	focusCalc
	focusCount
)

type hoursField int

const (
	hoursNone hoursField = iota
	hoursOvertime
	hoursPTO
)

var dashFocusLabels = []string{"Counter", "Day", "Week", "Month", "Calculator"}

type DashboardModel struct {
	CommonModel
	svc   *estimate.Service
	theme *Theme
	loc   *time.Location

	focus   dashFocus
	pickers [focusCount]PeriodPicker

	otInput  textinput.Model
	ptoInput textinput.Model
	editing  hoursField

	snap dashboard.Snapshot
}

func NewDashboardModel(svc *estimate.Service, theme *Theme, loc *time.Location) DashboardModel {
	counter := NewPeriodPicker("counter", datewindow.Daily, loc)
	counter.Cycle = true

	m := DashboardModel{
		svc:   svc,
		theme: theme,
		loc:   loc,
		pickers: [focusCount]PeriodPicker{
			focusCounter: counter,
			focusDay:     NewPeriodPicker("day", datewindow.Daily, loc),
			focusWeek:    NewPeriodPicker("week", datewindow.Weekly, loc),
			focusMonth:   NewPeriodPicker("month", datewindow.Monthly, loc),
			focusCalc:    NewPeriodPicker("calc", datewindow.Weekly, loc),
		},
		otInput:  hoursInput("Overtime hrs: "),
		ptoInput: hoursInput("PTO hrs:      "),
	}
	m.refresh()

	return m
}

func hoursInput(prompt string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "0"
	ti.CharLimit = 6
	ti.Width = 8

	return ti
}

func (m DashboardModel) Title() string { return "Dashboard" }

func (m DashboardModel) ShortHelp() string {
	if m.editing != hoursNone {
		return "Enter: apply | Esc: cancel"
	}

	return "Tab: next panel | h/l: prev/next | t: today | g: granularity | o/p: overtime/PTO | Esc: back"
}

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

func hours(ti textinput.Model) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(ti.Value()), 64)
	if err != nil {
		return 0
	}

	return v
}

func (m *DashboardModel) refresh() {
	m.snap = dashboard.Build(m.svc.Records(), dashboard.Anchors{
		Granularity:   m.pickers[focusCounter].Granularity(),
		Counter:       m.pickers[focusCounter].Anchor(),
		Day:           m.pickers[focusDay].Anchor(),
		Week:          m.pickers[focusWeek].Anchor(),
		Month:         m.pickers[focusMonth].Anchor(),
		CalcWeek:      m.pickers[focusCalc].Anchor(),
		OvertimeHours: hours(m.otInput),
		PTOHours:      hours(m.ptoInput),
	}, m.loc)
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RecordsChangedMsg, PeriodChangedMsg:
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if m.editing != hoursNone {
			return m.updateEditing(msg)
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "tab":
			m.focus = (m.focus + 1) % focusCount
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + focusCount - 1) % focusCount
			return m, nil
		case "o":
			m.focus = focusCalc
			m.editing = hoursOvertime
			m.otInput.Focus()

			return m, textinput.Blink
		case "p":
			m.focus = focusCalc
			m.editing = hoursPTO
			m.ptoInput.Focus()

			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.pickers[m.focus], cmd = m.pickers[m.focus].Update(msg)

	return m, cmd
}

func (m DashboardModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := &m.otInput
	if m.editing == hoursPTO {
		target = &m.ptoInput
	}

	switch msg.Type {
	case tea.KeyEsc:
		target.SetValue("")
		fallthrough
	case tea.KeyEnter:
		target.Blur()
		m.editing = hoursNone
		m.refresh()

		return m, nil
	}

	var cmd tea.Cmd
	*target, cmd = target.Update(msg)

	return m, cmd
}

func (m DashboardModel) View() string {
	tabs := make([]string, 0, len(dashFocusLabels))
	for i, label := range dashFocusLabels {
		if dashFocus(i) == m.focus {
			label = m.theme.Active("[" + label + "]")
		}

		tabs = append(tabs, label)
	}

	c := m.snap.Counts
	counter := fmt.Sprintf("%s\nInitial: %d   Final: %d   Total: %d",
		m.pickers[focusCounter].Label(), c.Initial, c.Final, c.Total)

	p := m.snap.Productivity
	calc := fmt.Sprintf("Week %s\n%s\n%s\nReturned: %d   Hours: %.1f\nPer hour: %.2f   Per day: %.2f",
		m.pickers[focusCalc].Label(), m.otInput.View(), m.ptoInput.View(),
		p.WeeklyCount, p.EffectiveHours, p.PerHour, p.PerDay)

	box := lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Color())

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(m.theme.Title("Returned")+"\n"+counter),
		box.Render(m.theme.Title("Productivity")+"\n"+calc),
		box.Render(m.theme.Title("Queues")+fmt.Sprintf("\nUnbilled finals: %d\nOpen work: %d",
			len(m.snap.Unbilled), len(m.snap.Open))),
	)

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(panelView(m.theme.Title("Day"), m.pickers[focusDay], m.snap.Day)),
		box.Render(panelView(m.theme.Title("Week"), m.pickers[focusWeek], m.snap.Week)),
		box.Render(panelView(m.theme.Title("Month"), m.pickers[focusMonth], m.snap.Month)),
	)

	errLine := ""
	if err := m.svc.Err(); err != nil {
		errLine = errorText(err.Error())
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(tabs, "  "),
		"",
		top,
		panels,
		errLine,
		faint(m.ShortHelp()),
	))
}

const panelRows = 8

func panelView(title string, p PeriodPicker, panel dashboard.Panel) string {
	lines := []string{title, p.Label(), ""}

	for i, r := range panel.Records {
		if i == panelRows {
			lines = append(lines, faint(fmt.Sprintf("... %d more", len(panel.Records)-panelRows)))
			break
		}

		lines = append(lines, fmt.Sprintf("%-8s %-10s %s", r.EstimateType, r.ClaimNumber, FormatAmount(r)))
	}

	if len(panel.Records) == 0 {
		lines = append(lines, faint("Nothing returned"))
	}

	return strings.Join(lines, "\n")
}
