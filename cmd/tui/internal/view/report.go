package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/report"
)

type reportState int

const (
	reportStatePeriod reportState = iota
	reportStatePath
	reportStateExporting
	reportStateResult
)

const reportTimeout = 2 * time.Minute

type ReportModel struct {
	CommonModel
	reportService *report.Service
	theme         *Theme

	state   reportState
	period  PeriodPicker
	form    *huh.Form
	path    *string
	spinner spinner.Model

	file    string
	summary string
	err     error
}

func NewReportModel(svc *report.Service, theme *Theme, loc *time.Location) ReportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Color())

	period := NewPeriodPicker("report", datewindow.Weekly, loc)
	period.Cycle = true

	return ReportModel{
		reportService: svc,
		theme:         theme,
		state:         reportStatePeriod,
		period:        period,
		path:          new("./reports"),
		spinner:       s,
	}
}

func (m ReportModel) Title() string { return "Report" }

func (m ReportModel) ShortHelp() string {
	switch m.state {
	case reportStatePeriod:
		return "g: granularity | h/l: prev/next | t: today | Enter: continue | Esc: back"
	case reportStateResult:
		return "Esc: back to menu"
	case reportStateExporting:
		return "Exporting..."
	}

	return "Esc: back | Enter: confirm"
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case reportStatePeriod:
		return m.updatePeriod(msg)
	case reportStatePath:
		return m.updatePath(msg)
	case reportStateExporting:
		return m.updateExporting(msg)
	case reportStateResult:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ReportModel) updatePeriod(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			m.form = m.buildPathForm()
			m.state = reportStatePath

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.period, cmd = m.period.Update(msg)

	return m, cmd
}

func (m ReportModel) updatePath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = reportStatePeriod
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = reportStateExporting
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.runReportCmd(m.period.Granularity(), m.period.Anchor(), *m.path))
}

func (m ReportModel) updateExporting(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(reportResultMsg); ok {
		m.state = reportStateResult
		m.err = result.err
		m.file = result.file
		m.summary = result.summary

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ReportModel) buildPathForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./reports").
				Value(m.path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ReportModel) View() string {
	switch m.state {
	case reportStatePeriod:
		return lipgloss.NewStyle().Padding(1).Render(fmt.Sprintf("%s\n\n%s\n\n%s",
			m.theme.Title("Report period"), m.theme.Active(m.period.Label()), faint(m.ShortHelp())))
	case reportStatePath:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case reportStateExporting:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Writing report...", m.spinner.View()),
		)
	case reportStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ReportModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorText(fmt.Sprintf("Error: %v", m.err)))
	}

	summary := m.summary
	if summary == "" {
		summary = faint("No estimates returned in this period.")
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			successText("Report written to "+m.file),
			"",
			"Summary:",
			"",
			summary,
		),
	)
}

type reportResultMsg struct {
	file    string
	summary string
	err     error
}

func (m ReportModel) runReportCmd(g datewindow.Granularity, anchor, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		rep, err := m.reportService.Build(ctx, g, anchor)
		if err != nil {
			return reportResultMsg{err: err}
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return reportResultMsg{err: err}
		}

		name := filepath.Join(dir, fmt.Sprintf("report_%s_%s.zip", g, datewindow.FormatDate(rep.Bounds.Start)))

		f, err := os.Create(name)
		if err != nil {
			return reportResultMsg{err: err}
		}
		defer f.Close()

		if err := report.WriteArchive(f, rep); err != nil {
			return reportResultMsg{err: err}
		}

		summary := report.SummaryLines(rep.Items)
		if summary != "" {
			summary += fmt.Sprintf("\nTotal: %s (%d unbilled)", estimate.FormatUSD(rep.TotalCents), rep.Unbilled)
		}

		return reportResultMsg{file: name, summary: summary}
	}
}
