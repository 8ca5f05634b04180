package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/store"
)

var settingLabels = map[string]string{
	store.SettingUserID:            "User ID",
	store.SettingWorkdaysPerWeek:   "Default working days",
	store.SettingDailyCallCapacity: "Daily call capacity",
	store.SettingLastSync:          "Last sync",
}

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	workWeek *activity.WorkWeek
	capacity *string
}

func newSettingsModel(s *store.Store) settingsModel {
	week := activity.WorkWeekMonFri
	capacity := ""
	return settingsModel{
		store:    s,
		workWeek: &week,
		capacity: &capacity,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings(context.Background())
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	ctx := context.Background()
	week, err := s.store.WorkWeek(ctx)
	if err != nil {
		week = activity.WorkWeekMonFri
	}
	capacity, err := s.store.DailyCallCapacity(ctx)
	if err != nil {
		capacity = 0
	}
	*s.workWeek = week
	*s.capacity = strconv.Itoa(capacity)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[activity.WorkWeek]().Title("Default working days").
				Options(workWeekOptions()...).
				Value(s.workWeek),
			huh.NewInput().Title("Daily call capacity (0 = no limit)").
				Value(s.capacity).
				Validate(countValidator(0)),
		).Title("Planning"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Sequence(s.saveSettings(), s.refresh())
	}

	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	week := strconv.Itoa(int(*s.workWeek))
	capacity := strconv.Itoa(atoi(*s.capacity))
	return func() tea.Msg {
		ctx := context.Background()
		if err := s.store.SetSetting(ctx, store.SettingWorkdaysPerWeek, week); err != nil {
			return errStatus("Save settings", err)
		}
		if err := s.store.SetSetting(ctx, store.SettingDailyCallCapacity, capacity); err != nil {
			return errStatus("Save settings", err)
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(settingLabel(setting.Key))
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingLabel(k string) string {
	if l, ok := settingLabels[k]; ok {
		return l
	}
	return k
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingWorkdaysPerWeek:
		switch v {
		case "5":
			return "Monday to Friday"
		case "6":
			return "Monday to Saturday"
		case "7":
			return "Every day"
		}
	case store.SettingDailyCallCapacity:
		if v == "" || v == "0" {
			return "no limit"
		}
		return v + " calls"
	case store.SettingLastSync:
		if v == "" {
			return "never"
		}
	}
	return v
}
