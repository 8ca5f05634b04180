package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/export"
	"github.com/sadopc/quotadesk/internal/service"
	"github.com/sadopc/quotadesk/internal/store"
)

// refreshEvery is how often the Today view re-projects pacing.
const refreshEvery = time.Minute

// App is the root Bubble Tea model.
type App struct {
	svc    *service.Service
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today    todayModel
	logForm  logFormModel
	plan     planModel
	analysis analysisModel
	history  historyModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(svc *service.Service, s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	return App{
		svc:        svc,
		store:      s,
		activeView: viewToday,
		today:      newTodayModel(svc),
		logForm:    newLogFormModel(svc),
		plan:       newPlanModel(svc),
		analysis:   newAnalysisModel(svc, s),
		history:    newHistoryModel(svc),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.today.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.logForm.setSize(a.width, contentHeight)
		a.plan.setSize(a.width, contentHeight)
		a.analysis.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewLog)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewPlan)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewAnalysis)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewHistory)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.status = errorStyle.Render(msg.text)
		}
		return a, nil

	case editLogMsg:
		a.activeView = viewLog
		return a, a.logForm.load(msg.date)

	case logSavedMsg, planSavedMsg:
		// Every view that derives from the log reloads.
		a.status = "Saved"
		var c1, c2, c3, c4, c5 tea.Cmd
		a.today, c1 = a.today.update(msg)
		a.plan, c2 = a.plan.update(msg)
		a.analysis, c3 = a.analysis.update(msg)
		a.history, c4 = a.history.update(msg)
		if saved, ok := msg.(logSavedMsg); ok && saved.log != nil {
			a.logForm, c5 = a.logForm.update(logDataMsg{log: *saved.log})
		}
		return a, tea.Batch(c1, c2, c3, c4, c5)

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewLog:
		a.logForm, cmd = a.logForm.update(msg)
	case viewPlan:
		a.plan, cmd = a.plan.update(msg)
	case viewAnalysis:
		a.analysis, cmd = a.analysis.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewLog:
		return a.logForm.formActive
	case viewPlan:
		return a.plan.formActive
	case viewSettings:
		return a.settings.formActive
	case viewHistory:
		return a.history.confirming
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.loadData()
	case viewLog:
		return a.logForm.load(a.logForm.date)
	case viewPlan:
		return a.plan.refresh()
	case viewAnalysis:
		return a.analysis.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewLog:
		content = a.logForm.view()
	case viewPlan:
		content = a.plan.view()
	case viewAnalysis:
		content = a.analysis.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("quotadesk")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Pacing indicator in footer
	paceInfo := ""
	if t := a.today.today; t != nil && t.Plan.TargetSet {
		paceInfo = statusStyleFor(!t.Pace.Urgent)(fmt.Sprintf(" ● %s %d/%d", t.Pace.Status, t.Pace.ActualWon, t.Pace.DailyQuota))
	}

	left := footerStyle.Render(helpView)
	right := paceInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		home, _ := os.UserHomeDir()
		return a, a.doExport(a.exportCursor, home)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		logs, err := a.svc.Logs(ctx, store.LogFilter{})
		if err != nil {
			return errStatus("Export", err)
		}

		dateStr := activity.DateKey(a.svc.Now())

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("quotadesk-export-%s.csv", dateStr))
			if err := export.ToCSV(logs, path); err != nil {
				return errStatus("CSV", err)
			}
		} else {
			plans, err := a.store.ListPlans(ctx)
			if err != nil {
				return errStatus("Export", err)
			}
			path = filepath.Join(dir, fmt.Sprintf("quotadesk-export-%s.json", dateStr))
			if err := export.ToJSON(logs, plans, path); err != nil {
				return errStatus("JSON", err)
			}
		}

		return exportDoneMsg{path: path}
	}
}
