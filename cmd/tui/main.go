package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tally/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tally/internal/config"
	"github.com/MrJamesThe3rd/tally/internal/database"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	estimateStore "github.com/MrJamesThe3rd/tally/internal/estimate/store"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/preferences"
	prefStore "github.com/MrJamesThe3rd/tally/internal/preferences/store"
	"github.com/MrJamesThe3rd/tally/internal/report"
)

type model struct {
	estimateService *estimate.Service
	prefService     *preferences.Service
	importService   *importer.Service
	reportService   *report.Service
	theme           *view.Theme
	loc             *time.Location

	currentView View

	welcomeView   view.WelcomeModel
	entryView     view.EntryModel
	dashboardView view.DashboardModel
	queuesView    view.QueuesModel
	listView      view.ListModel
	importView    view.ImportModel
	reportView    view.ReportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewWelcome   View = 1
	ViewEntry     View = 2
	ViewDashboard View = 3
	ViewQueues    View = 4
	ViewList      View = 5
	ViewImport    View = 6
	ViewReport    View = 7
)

type app struct {
	model    model
	listener *estimateStore.Listener
}

func setup(ctx context.Context) app {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("failed to load time zone", "error", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	estSvc := estimate.NewService(estimateStore.New(db),
		estimate.WithClock(func() time.Time { return time.Now().In(loc) }))
	prefSvc := preferences.NewService(prefStore.New(db))
	impSvc := importer.NewService(estSvc)
	repSvc := report.NewService(estSvc, loc)

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := estSvc.Load(loadCtx); err != nil {
		slog.Warn("initial load failed", "error", err)
	}

	accent, err := prefSvc.Accent(loadCtx)
	if err != nil {
		accent = preferences.DefaultAccent
	}

	theme := view.NewTheme(accent)

	start := ViewMenu
	if dismissed, err := prefSvc.WelcomeDismissed(loadCtx); err != nil || !dismissed {
		start = ViewWelcome
	}

	m := model{
		estimateService: estSvc,
		prefService:     prefSvc,
		importService:   impSvc,
		reportService:   repSvc,
		theme:           theme,
		loc:             loc,
		currentView:     start,
		welcomeView:     view.NewWelcomeModel(prefSvc, theme, loc),
		entryView:       view.NewEntryModel(estSvc, theme, loc),
		dashboardView:   view.NewDashboardModel(estSvc, theme, loc),
		queuesView:      view.NewQueuesModel(estSvc, theme),
		listView:        view.NewListModel(estSvc, theme),
		importView:      view.NewImportModel(impSvc, theme),
		reportView:      view.NewReportModel(repSvc, theme, loc),
	}

	listener := estimateStore.NewListener(cfg.ConnectionString(),
		estimateStore.WithBackoff(cfg.Stream.Reconnect),
	)

	return app{model: m, listener: listener}
}

func (m model) Init() tea.Cmd {
	if m.currentView == ViewWelcome {
		return m.welcomeView.Init()
	}

	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewEntry
				m.entryView = view.NewEntryModel(m.estimateService, m.theme, m.loc)

				return m, m.entryView.Init()
			case "2":
				m.currentView = ViewDashboard
				m.dashboardView = view.NewDashboardModel(m.estimateService, m.theme, m.loc)

				return m, m.dashboardView.Init()
			case "3":
				m.currentView = ViewQueues
				m.queuesView = view.NewQueuesModel(m.estimateService, m.theme)

				return m, m.queuesView.Init()
			case "4":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.estimateService, m.theme)

				return m, m.listView.Init()
			case "5":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.importService, m.theme)

				return m, m.importView.Init()
			case "6":
				m.currentView = ViewReport
				m.reportView = view.NewReportModel(m.reportService, m.theme, m.loc)

				return m, m.reportView.Init()
			case "w":
				m.currentView = ViewWelcome
				m.welcomeView = view.NewWelcomeModel(m.prefService, m.theme, m.loc)

				return m, m.welcomeView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewWelcome:
		var newModel tea.Model
		newModel, cmd = m.welcomeView.Update(msg)
		m.welcomeView = newModel.(view.WelcomeModel)
	case ViewEntry:
		var newModel tea.Model
		newModel, cmd = m.entryView.Update(msg)
		m.entryView = newModel.(view.EntryModel)
	case ViewDashboard:
		var newModel tea.Model
		newModel, cmd = m.dashboardView.Update(msg)
		m.dashboardView = newModel.(view.DashboardModel)
	case ViewQueues:
		var newModel tea.Model
		newModel, cmd = m.queuesView.Update(msg)
		m.queuesView = newModel.(view.QueuesModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewReport:
		var newModel tea.Model
		newModel, cmd = m.reportView.Update(msg)
		m.reportView = newModel.(view.ReportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		status := ""
		if err := m.estimateService.Err(); err != nil {
			status = "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(err.Error())
		}

		return lipgloss.NewStyle().Padding(2).Render(
			m.theme.Title("Tally") + "\n\n" +
				"1. New Estimate\n" +
				"2. Dashboard\n" +
				"3. Queues\n" +
				"4. All Estimates\n" +
				"5. Import Estimates\n" +
				"6. Report\n\n" +
				"w. Welcome\n" +
				"q. Quit" + status,
		)
	case ViewWelcome:
		return m.welcomeView.View()
	case ViewEntry:
		return m.entryView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewQueues:
		return m.queuesView.View()
	case ViewList:
		return m.listView.View()
	case ViewImport:
		return m.importView.View()
	case ViewReport:
		return m.reportView.View()
	}

	return "Unknown View"
}

// stream applies change notifications to the session and tells the
// program to redraw.
func stream(ctx context.Context, svc *estimate.Service, events <-chan estimate.Event, p *tea.Program) {
	for ev := range events {
		if err := svc.Apply(ctx, ev); err != nil {
			slog.Error("failed to apply change event", "event", ev.Kind, "error", err)
		}

		p.Send(view.RecordsChangedMsg{})
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := setup(ctx)
	p := tea.NewProgram(a.model, tea.WithAltScreen())

	events := make(chan estimate.Event, 64)

	go func() {
		defer close(events)

		if err := a.listener.Run(ctx, events); err != nil {
			slog.Error("estimate stream stopped", "error", err)
		}
	}()

	go stream(ctx, a.model.estimateService, events, p)

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
