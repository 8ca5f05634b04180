package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/service"
)

// logField binds one integer column of a DailyLog to a form input.
type logField struct {
	title string
	ref   func(*activity.DailyLog) *int
	max   int // 0 means unbounded
}

var logGroups = []struct {
	title  string
	fields []logField
}{
	{"Calls", []logField{
		{title: "Answered", ref: func(l *activity.DailyLog) *int { return &l.CallsAnswered }},
		{title: "Refused", ref: func(l *activity.DailyLog) *int { return &l.CallsRefused }},
		{title: "No answer", ref: func(l *activity.DailyLog) *int { return &l.CallsNoAnswer }},
		{title: "Messages sent", ref: func(l *activity.DailyLog) *int { return &l.MessagesSent }},
	}},
	{"Booked", []logField{
		{title: "Booked LA", ref: func(l *activity.DailyLog) *int { return &l.BookedLA }},
		{title: "Booked FV", ref: func(l *activity.DailyLog) *int { return &l.BookedFV }},
		{title: "Booked CAD", ref: func(l *activity.DailyLog) *int { return &l.BookedCAD }},
		{title: "New leads", ref: func(l *activity.DailyLog) *int { return &l.NewLeads }},
	}},
	{"Completed", []logField{
		{title: "Completed LA", ref: func(l *activity.DailyLog) *int { return &l.DoneLA }},
		{title: "Completed FV", ref: func(l *activity.DailyLog) *int { return &l.DoneFV }},
		{title: "Completed CAD", ref: func(l *activity.DailyLog) *int { return &l.DoneCAD }},
		{title: "Completed CDE", ref: func(l *activity.DailyLog) *int { return &l.DoneCDE }},
	}},
	{"Won", []logField{
		{title: "Won LA", ref: func(l *activity.DailyLog) *int { return &l.WonLA }},
		{title: "Won FV", ref: func(l *activity.DailyLog) *int { return &l.WonFV }},
		{title: "Won CAD", ref: func(l *activity.DailyLog) *int { return &l.WonCAD }},
	}},
	{"Wellbeing", []logField{
		{title: "Energy (1-10)", ref: func(l *activity.DailyLog) *int { return &l.Energy }, max: 10},
		{title: "Focus (1-10)", ref: func(l *activity.DailyLog) *int { return &l.Focus }, max: 10},
		{title: "Confidence (1-10)", ref: func(l *activity.DailyLog) *int { return &l.Confidence }, max: 10},
	}},
}

type logFormModel struct {
	svc    *service.Service
	width  int
	height int

	date string
	log  activity.DailyLog

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	texts [][]*string
	note  *string
}

func newLogFormModel(svc *service.Service) logFormModel {
	texts := make([][]*string, len(logGroups))
	for i, g := range logGroups {
		texts[i] = make([]*string, len(g.fields))
		for j := range g.fields {
			v := ""
			texts[i][j] = &v
		}
	}
	note := ""
	return logFormModel{svc: svc, texts: texts, note: &note}
}

func (m *logFormModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type logDataMsg struct {
	log activity.DailyLog
	err error
}

// load fetches the log of date, or today's when date is empty.
func (m logFormModel) load(date string) tea.Cmd {
	return func() tea.Msg {
		if date == "" {
			date = activity.DateKey(m.svc.Now())
		}
		l, err := m.svc.Log(context.Background(), date)
		return logDataMsg{log: l, err: err}
	}
}

func (m logFormModel) update(msg tea.Msg) (logFormModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case logDataMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return errStatus("Load log", msg.err) }
		}
		m.date, m.log = msg.log.Date, msg.log
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			return m.showForm()
		case key.Matches(msg, keys.Left):
			return m, m.shift(-1)
		case key.Matches(msg, keys.Right):
			return m, m.shift(1)
		}
	}
	return m, nil
}

func (m logFormModel) shift(days int) tea.Cmd {
	t, err := activity.ParseDate(m.date)
	if err != nil {
		return m.load("")
	}
	next := activity.DateKey(t.AddDate(0, 0, days))
	if next > activity.DateKey(m.svc.Now()) {
		return nil
	}
	return m.load(next)
}

func (m logFormModel) showForm() (logFormModel, tea.Cmd) {
	var groups []*huh.Group
	for i, g := range logGroups {
		var fields []huh.Field
		for j, f := range g.fields {
			*m.texts[i][j] = strconv.Itoa(*f.ref(&m.log))
			fields = append(fields, huh.NewInput().
				Title(f.title).
				Value(m.texts[i][j]).
				Validate(countValidator(f.max)))
		}
		if g.title == "Wellbeing" {
			*m.note = m.log.MoodNote
			fields = append(fields, huh.NewText().Title("Note").Value(m.note))
		}
		groups = append(groups, huh.NewGroup(fields...).Title(g.title))
	}

	m.form = huh.NewForm(groups...).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func countValidator(limit int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("enter a whole number")
		}
		if n < 0 {
			return fmt.Errorf("must not be negative")
		}
		if limit > 0 && (n < 1 || n > limit) {
			return fmt.Errorf("must be between 1 and %d", limit)
		}
		return nil
	}
}

// apply copies the form values onto a copy of the loaded log.
func (m logFormModel) apply() activity.DailyLog {
	l := m.log
	for i, g := range logGroups {
		for j, f := range g.fields {
			if n, err := strconv.Atoi(strings.TrimSpace(*m.texts[i][j])); err == nil {
				*f.ref(&l) = n
			}
		}
	}
	l.MoodNote = strings.TrimSpace(*m.note)
	return l.Normalized()
}

func (m logFormModel) updateForm(msg tea.Msg) (logFormModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m, m.save(m.apply())
	}
	return m, cmd
}

func (m logFormModel) save(l activity.DailyLog) tea.Cmd {
	return func() tea.Msg {
		saved, err := m.svc.SaveLog(context.Background(), l)
		if err != nil {
			return errStatus("Save log", err)
		}
		return logSavedMsg{log: saved}
	}
}

func (m logFormModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Log " + m.date)
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	if m.date == "" {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	l := m.log
	title := titleStyle.Render("Log " + m.date)
	line := func(label string, v any) string {
		return fmt.Sprintf("  %s %v", labelStyle.Render(label), highlightStyle.Render(fmt.Sprint(v)))
	}

	rows := []string{
		title, "",
		line("Calls", fmt.Sprintf("%d (answered %d, refused %d, no answer %d)",
			l.CallsTotal, l.CallsAnswered, l.CallsRefused, l.CallsNoAnswer)),
		line("Messages", l.MessagesSent),
		line("Booked", fmt.Sprintf("LA %d  FV %d  CAD %d", l.BookedLA, l.BookedFV, l.BookedCAD)),
		line("Completed", fmt.Sprintf("LA %d  FV %d  CAD %d  CDE %d", l.DoneLA, l.DoneFV, l.DoneCAD, l.DoneCDE)),
		line("Won", fmt.Sprintf("LA %d  FV %d  CAD %d", l.WonLA, l.WonFV, l.WonCAD)),
		line("New leads", l.NewLeads),
		line("Wellbeing", fmt.Sprintf("energy %d  focus %d  confidence %d", l.Energy, l.Focus, l.Confidence)),
	}
	if l.MoodNote != "" {
		rows = append(rows, line("Note", l.MoodNote))
	}
	rows = append(rows, "", mutedStyle.Render("  n: edit  ←/→: previous/next day"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
