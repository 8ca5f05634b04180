package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/service"
	"github.com/sadopc/quotadesk/internal/store"
)

const historyLimit = 60

type historyModel struct {
	svc    *service.Service
	width  int
	height int

	logs   []activity.DailyLog
	cursor int

	confirming bool // delete pending confirmation
}

func newHistoryModel(svc *service.Service) historyModel {
	return historyModel{svc: svc}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type historyDataMsg struct {
	logs []activity.DailyLog
	err  error
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		logs, err := h.svc.Logs(context.Background(), store.LogFilter{Limit: historyLimit})
		return historyDataMsg{logs: logs, err: err}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			return h, func() tea.Msg { return errStatus("History", msg.err) }
		}
		h.logs = msg.logs
		if h.cursor >= len(h.logs) {
			h.cursor = max(0, len(h.logs)-1)
		}
		return h, nil

	case logSavedMsg:
		return h, h.refresh()

	case tea.KeyMsg:
		if h.confirming {
			h.confirming = false
			if msg.String() == "y" && len(h.logs) > 0 {
				return h, tea.Sequence(h.delete(h.logs[h.cursor].Date), h.refresh())
			}
			return h, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.logs)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			if len(h.logs) > 0 {
				date := h.logs[h.cursor].Date
				return h, func() tea.Msg { return editLogMsg{date: date} }
			}
		case key.Matches(msg, keys.Delete):
			if len(h.logs) > 0 {
				h.confirming = true
			}
		}
	}
	return h, nil
}

func (h historyModel) delete(date string) tea.Cmd {
	return func() tea.Msg {
		if err := h.svc.DeleteLog(context.Background(), date); err != nil {
			return errStatus("Delete", err)
		}
		return statusMsg{text: "Deleted " + date}
	}
}

// relativeDay renders a log date as "today", "yesterday" or "3 days ago".
func relativeDay(date string, svc *service.Service) string {
	now := svc.Now()
	today := activity.DateKey(now)
	switch {
	case date == today:
		return "today"
	case date == activity.DateKey(now.AddDate(0, 0, -1)):
		return "yesterday"
	}
	t, err := activity.ParseDate(date)
	if err != nil {
		return ""
	}
	midnight, _ := activity.ParseDate(today)
	return humanize.RelTime(t, midnight, "ago", "from now")
}

func (h historyModel) view() string {
	w := h.width - 4
	title := titleStyle.Render("History")

	if len(h.logs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nothing logged yet. Press 2 to log a day."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-14s %8s %7s %6s %5s  %s",
		"Date", "", "Attempts", "Booked", "Done", "Won", "Updated")))

	visible := max(5, h.height-10)
	start := 0
	if h.cursor >= visible {
		start = h.cursor - visible + 1
	}
	end := min(len(h.logs), start+visible)

	for i := start; i < end; i++ {
		l := h.logs[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		updated := ""
		if !l.UpdatedAt.IsZero() {
			updated = humanize.Time(l.UpdatedAt)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %-14s %8d %7d %6d %5d", cursor,
			l.Date, relativeDay(l.Date, h.svc), l.Attempts(), l.BookedTotal(), l.DoneTotal(), l.WonTotal()))+
			mutedStyle.Render("  "+updated))
	}

	rows = append(rows, "")
	if h.confirming {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  Delete %s? y to confirm, any key to cancel", h.logs[h.cursor].Date)))
	} else {
		rows = append(rows, mutedStyle.Render("  enter: edit  d: delete  ↑/↓: move"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
