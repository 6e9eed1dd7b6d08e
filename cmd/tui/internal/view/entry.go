package view

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
)

// EntryModel is the new estimate form.
type EntryModel struct {
	CommonModel
	svc   *estimate.Service
	theme *Theme
	loc   *time.Location

	values    *form.Form
	form      *huh.Form
	fieldErrs map[string]string
	saving    bool
	status    string
}

func NewEntryModel(svc *estimate.Service, theme *Theme, loc *time.Location) EntryModel {
	m := EntryModel{svc: svc, theme: theme, loc: loc}
	m.reset()

	return m
}

func (m EntryModel) Title() string { return "New Estimate" }

func (m EntryModel) ShortHelp() string { return "Tab: next field | Enter: submit | Esc: back" }

func (m *EntryModel) reset() {
	now := time.Now().In(m.loc)

	f := form.New()
	f.DateReceived = datewindow.FormatDate(now)
	f.TimeReceived = datewindow.FormatTime(now)

	m.values = &f
	m.fieldErrs = nil
	m.form = m.buildForm()
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New(form.MsgRequired)
	}

	return nil
}

func validAmount(s string) error {
	if _, err := estimate.ParseCents(s); err != nil {
		return errors.New(form.MsgInvalidAmount)
	}

	return nil
}

func (m EntryModel) buildForm() *huh.Form {
	v := m.values

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("estimate_type").
				Title("Type").
				Options(huh.NewOptions(string(estimate.TypeInitial), string(estimate.TypeFinal))...).
				Value(&v.EstimateType),
			huh.NewInput().Key("claim_number").Title("Claim #").Value(&v.ClaimNumber).Validate(required),
			huh.NewInput().Key("client_name").Title("Client").Value(&v.ClientName).Validate(required),
			huh.NewInput().Key("task_number").Title("Task #").Value(&v.TaskNumber).Validate(required),
		),
		huh.NewGroup(
			huh.NewInput().Key("date_received").Title("Date received").Placeholder("YYYY-MM-DD").Value(&v.DateReceived),
			huh.NewInput().Key("time_received").Title("Time received").Placeholder("HH:MM").Value(&v.TimeReceived),
			huh.NewInput().Key("date_returned").Title("Date returned").Placeholder("YYYY-MM-DD").Value(&v.DateReturned),
			huh.NewInput().Key("time_returned").Title("Time returned").Placeholder("HH:MM").Value(&v.TimeReturned),
		),
		huh.NewGroup(
			huh.NewInput().Key("final_amount").Title("Final amount").Placeholder("$0.00").
				Value(&v.FinalAmount).Validate(validAmount),
			huh.NewSelect[string]().
				Key("status").
				Title("Status").
				Options(huh.NewOptions(
					string(estimate.StatusNotStarted),
					string(estimate.StatusInProgress),
					string(estimate.StatusDone),
				)...).
				Value(&v.Status),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m EntryModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m EntryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	case entrySavedMsg:
		m.saving = false

		if msg.err != nil {
			m.status = errorText(fmt.Sprintf("Error saving: %v", msg.err))
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		m.reset()
		m.status = successText(fmt.Sprintf("Saved %s for %s.", msg.rec.ClaimNumber, msg.rec.ClientName))

		return m, m.form.Init()
	}

	if m.saving {
		return m, nil
	}

	f, cmd := m.form.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		m.form = hf
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m.submit()
}

func (m EntryModel) submit() (tea.Model, tea.Cmd) {
	m.values.FormatAmountOnBlur()

	in, err := m.values.Input(time.Now().In(m.loc))
	if err != nil {
		var verr *form.ValidationError
		if !errors.As(err, &verr) {
			m.status = errorText(err.Error())
		} else {
			m.fieldErrs = verr.Fields
			m.status = ""
		}

		m.form = m.buildForm()

		return m, m.form.Init()
	}

	m.fieldErrs = nil
	m.saving = true
	m.status = "Saving..."

	return m, m.createCmd(in)
}

func (m EntryModel) View() string {
	parts := []string{m.theme.Title("New Estimate"), "", m.form.View()}

	if len(m.fieldErrs) > 0 {
		lines := make([]string, 0, len(m.fieldErrs))
		for _, name := range slices.Sorted(maps.Keys(m.fieldErrs)) {
			lines = append(lines, errorText(fmt.Sprintf("%s: %s", name, m.fieldErrs[name])))
		}

		parts = append(parts, "", strings.Join(lines, "\n"))
	}

	if m.status != "" {
		parts = append(parts, "", m.status)
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

type entrySavedMsg struct {
	rec estimate.Record
	err error
}

func (m EntryModel) createCmd(in estimate.Input) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rec, err := m.svc.Create(ctx, in)

		return entrySavedMsg{rec: rec, err: err}
	}
}
