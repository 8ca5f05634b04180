package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/planning"
	"github.com/sadopc/quotadesk/internal/service"
)

type todayModel struct {
	svc    *service.Service
	width  int
	height int

	today *service.Today
	err   error
}

func newTodayModel(svc *service.Service) todayModel {
	return todayModel{svc: svc}
}

func (d todayModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	today *service.Today
	err   error
}

func (d todayModel) loadData() tea.Cmd {
	return func() tea.Msg {
		t, err := d.svc.TodayPlan(context.Background())
		return todayDataMsg{today: t, err: err}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case todayDataMsg:
		d.today, d.err = msg.today, msg.err
		return d, nil

	case tickMsg, logSavedMsg, planSavedMsg:
		return d, d.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Refresh):
			return d, d.loadData()
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if d.today == nil {
				return d, nil
			}
			date := d.today.Log.Date
			return d, func() tea.Msg { return editLogMsg{date: date} }
		}
	}
	return d, nil
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.err != nil {
		return panelStyle.Width(w).Render(errorStyle.Render("Could not load today: " + d.err.Error()))
	}
	if d.today == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderPacePanel(w),
		d.renderQuotaPanel(w),
		d.renderMonthPanel(w),
	)
}

func (d todayModel) renderPacePanel(w int) string {
	p := d.today.Pace
	style := paceStyle
	switch {
	case p.Urgent:
		style = paceUrgentStyle
	case p.Status == planning.PaceAhead || p.Status == planning.PaceTargetReached:
		style = paceAheadStyle
	case p.Status == planning.PaceBehind:
		style = paceBehindStyle
	}

	headline := style.Width(w - 6).Render(fmt.Sprintf("%s  %d / %d won", p.Status, p.ActualWon, p.DailyQuota))
	clock := mutedStyle.Render(fmt.Sprintf("%s  day %.0f%% through  projected %d",
		d.today.Now.Format("Mon 02 Jan 15:04"), p.DayProgress*100, p.ProjectedWon))

	content := lipgloss.JoinVertical(lipgloss.Center, headline, clock, p.Message)
	if p.Urgent {
		return activePanelStyle.BorderForeground(colorError).Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (d todayModel) renderQuotaPanel(w int) string {
	tp := d.today.Plan
	title := titleStyle.Render("Today's quotas")

	if !tp.TargetSet {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render(fmt.Sprintf("No targets for %s. Press 3 to set them in Plan.", tp.Month)),
		)
		return panelStyle.Width(w).Render(content)
	}

	l := d.today.Log
	barWidth := max(10, min(30, w-50))
	row := func(label string, done, quota int) string {
		return fmt.Sprintf("  %s %s %3d / %-3d", labelStyle.Render(label),
			progressBar(done, quota, barWidth), done, quota)
	}

	rows := []string{
		title,
		row("Attempts", l.Normalized().Attempts(), tp.DailyAttempts),
		row("Booked", l.BookedTotal(), tp.DailyBooked),
		row("Completed", l.DoneTotal(), tp.DailyDone),
		row("Won", l.WonTotal(), tp.DailyWon),
		row("New leads", l.NewLeads, tp.DailyLeads),
	}
	if tp.CapacityExceeded {
		rows = append(rows, "", warningStyle.Render("  Attempts quota is above your daily call capacity."))
	}
	if !d.today.Logged {
		rows = append(rows, "", mutedStyle.Render("  Nothing logged today. Press n to log activity."))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderMonthPanel(w int) string {
	tp := d.today.Plan
	title := titleStyle.Render(fmt.Sprintf("Month %s", tp.Month)) +
		mutedStyle.Render(fmt.Sprintf("  %d workdays left", tp.RemainingWorkdays))

	if !tp.TargetSet {
		return panelStyle.Width(w).Render(title)
	}

	rows := []string{
		title,
		mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s", "", "Done", "Target")),
		fmt.Sprintf("  %-12s %8d %8d", "Attempts", tp.MTDActual.Attempts, tp.MonthTotal.Attempts),
		fmt.Sprintf("  %-12s %8d %8d", "Booked", tp.MTDActual.Booked, tp.MonthTotal.Booked),
		fmt.Sprintf("  %-12s %8d %8d", "Completed", tp.MTDActual.Done, tp.MonthTotal.Done),
		fmt.Sprintf("  %-12s %8d %8d", "Won", tp.MTDActual.Won, tp.MonthTotal.Won),
		fmt.Sprintf("  %-12s %8d %8d", "New leads", tp.MTDActual.Leads, tp.MonthTotal.Leads),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
