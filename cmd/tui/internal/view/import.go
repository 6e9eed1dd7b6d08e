package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

type ImportModel struct {
	CommonModel
	importService *importer.Service
	theme         *Theme

	state      importState
	filePicker filepicker.Model

	status string
	failed []string
	err    error
}

func NewImportModel(impSvc *importer.Service, theme *Theme) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		importService: impSvc,
		theme:         theme,
		filePicker:    fp,
	}
}

func (m ImportModel) Title() string { return "Import Estimates" }

func (m ImportModel) ShortHelp() string {
	return "Esc: back | Enter: select | ctrl+s: add sample estimates"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m.handleEsc()
		case "ctrl+s":
			if m.state == importStateFilePick {
				m.state = importStateImporting
				m.status = "Adding sample estimates..."

				return m, m.seedCmd()
			}
		}

	case importResultMsg:
		m.state = importStateResult
		m.err = msg.err
		m.failed = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d estimates.", len(msg.result.Created))

		for _, f := range msg.result.Failed {
			m.failed = append(m.failed, fmt.Sprintf("line %d: %v", f.Line, f.Err))
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	if m.state == importStateResult {
		m.state = importStateFilePick
		m.err = nil
		m.status = ""
		m.failed = nil

		return m, m.filePicker.Init()
	}

	return m, Back
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s\n\n%s\n\n%s", m.theme.Title("Select a CSV file to import"), m.filePicker.View(), faint(m.ShortHelp())),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorText(m.status) + "\n\n(Esc to go back)")
	}

	body := successText(m.status)
	if len(m.failed) > 0 {
		body += "\n\n" + errorText(fmt.Sprintf("%d rows skipped:", len(m.failed))) + "\n" + strings.Join(m.failed, "\n")
	}

	return style.Render(body + "\n\n(Esc to go back)")
}

type importResultMsg struct {
	result importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importService.Import(ctx, f)

		return importResultMsg{result: result, err: err}
	}
}

func (m ImportModel) seedCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		recs, err := m.importService.Seed(ctx)

		return importResultMsg{result: importer.Result{Created: recs}, err: err}
	}
}
