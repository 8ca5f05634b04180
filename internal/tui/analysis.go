package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/insights"
	"github.com/sadopc/quotadesk/internal/service"
	"github.com/sadopc/quotadesk/internal/store"
)

var analysisPeriods = []activity.Period{activity.PeriodToday, activity.PeriodWeek, activity.PeriodMonth}

// chartDays is the minimum span of the daily chart.
const chartDays = 7

type analysisModel struct {
	svc    *service.Service
	store  *store.Store
	width  int
	height int

	period   int // index into analysisPeriods
	analysis *service.Analysis
	totals   []store.DayTotals
	from, to string

	chart barchart.Model
}

func newAnalysisModel(svc *service.Service, s *store.Store) analysisModel {
	return analysisModel{
		svc:    svc,
		store:  s,
		period: 2,
		chart:  barchart.New(60, 12),
	}
}

func (r *analysisModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type analysisDataMsg struct {
	analysis *service.Analysis
	totals   []store.DayTotals
	from, to string
	err      error
}

func (r analysisModel) refresh() tea.Cmd {
	period := analysisPeriods[r.period]
	return func() tea.Msg {
		ctx := context.Background()
		a, err := r.svc.Diagnose(ctx, period, "", "")
		if err != nil {
			return analysisDataMsg{err: err}
		}
		from, to := chartRange(a, r.svc)
		totals, err := r.store.DailyTotals(ctx, from, to)
		return analysisDataMsg{analysis: a, totals: totals, from: from, to: to, err: err}
	}
}

// chartRange widens short periods to a week so the chart has some shape.
func chartRange(a *service.Analysis, svc *service.Service) (string, string) {
	now := svc.Now()
	earliest := activity.DateKey(now.AddDate(0, 0, 1-chartDays))
	if a.From > earliest {
		return earliest, a.To
	}
	return a.From, a.To
}

func (r analysisModel) update(msg tea.Msg) (analysisModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analysisDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return errStatus("Analysis", msg.err) }
		}
		r.analysis, r.totals = msg.analysis, msg.totals
		r.from, r.to = msg.from, msg.to
		r.buildChart()
		return r, nil

	case logSavedMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if r.period > 0 {
				r.period--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.period < len(analysisPeriods)-1 {
				r.period++
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Refresh):
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *analysisModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 40 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, err := activity.ParseDate(r.from)
	if err != nil {
		return
	}
	to, err := activity.ParseDate(r.to)
	if err != nil {
		return
	}

	byDate := make(map[string]store.DayTotals, len(r.totals))
	for _, t := range r.totals {
		byDate[t.Date] = t
	}

	bookedStyle := lipgloss.NewStyle().Foreground(colorHighlight)
	wonStyle := lipgloss.NewStyle().Foreground(colorSuccess)

	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		t := byDate[activity.DateKey(d)]
		bars = append(bars, barchart.BarData{
			Label: d.Format("02"),
			Values: []barchart.BarValue{
				{Name: "Booked", Value: float64(t.Booked), Style: bookedStyle},
				{Name: "Won", Value: float64(t.Won), Style: wonStyle},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r analysisModel) view() string {
	w := r.width - 4

	var tabs []string
	for i, p := range analysisPeriods {
		name := strings.ToUpper(string(p[:1])) + string(p[1:])
		if i == r.period {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		append([]string{titleStyle.Render("Analysis"), "  "}, tabs...)...)

	if r.analysis == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("Loading...")))
	}
	a := r.analysis

	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s, %d days logged", a.From, a.To, a.Days))
	legend := "  " + lipgloss.NewStyle().Foreground(colorHighlight).Render("● Booked") +
		"  " + successStyle.Render("● Won")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, dateLabel, "",
			r.chart.View(), legend, "",
			r.renderKPIs(), "",
			r.renderDiagnosis(w), "",
			mutedStyle.Render("  ←/→: period  r: refresh"),
		),
	)
}

func (r analysisModel) renderKPIs() string {
	k := r.analysis.KPIs
	s := r.analysis.Strategic

	scoreStyle := successStyle
	switch k.Score.Label {
	case insights.ScoreGood:
		scoreStyle = highlightStyle
	case insights.ScoreBelowStandard:
		scoreStyle = warningStyle
	}

	rows := []string{
		fmt.Sprintf("  %s %s", labelStyle.Render("Score"), scoreStyle.Render(fmt.Sprintf("%.0f  %s", k.Score.Total, k.Score.Label))),
		fmt.Sprintf("  %s booking %s  show %s  win %s",
			labelStyle.Render("Rates"), formatPct(k.Rates.Booking), formatPct(k.Rates.Show), formatPct(k.Rates.Win)),
		fmt.Sprintf("  %s %s", labelStyle.Render("Bottleneck"), highlightStyle.Render(s.Bottleneck)),
		fmt.Sprintf("  %s best %s  worst %s", labelStyle.Render("Products"), s.BestProduct, s.WorstProduct),
	}
	for _, alert := range s.Alerts {
		style := mutedStyle
		switch alert.Level {
		case insights.AlertDanger:
			style = errorStyle
		case insights.AlertWarning:
			style = warningStyle
		case insights.AlertSuccess:
			style = successStyle
		}
		rows = append(rows, "  "+style.Render("● "+alert.Message))
	}
	return strings.Join(rows, "\n")
}

func (r analysisModel) renderDiagnosis(w int) string {
	d := r.analysis.Diagnosis
	wrap := lipgloss.NewStyle().Width(max(20, w-8))

	rows := []string{
		titleStyle.Render("Diagnosis"),
		wrap.Render(d.Diagnosis),
		mutedStyle.Render(wrap.Render(d.WhatsWorking)),
		"",
		accentStyle.Render(wrap.Render(d.CriticalArea)),
	}
	for _, action := range d.Actions {
		rows = append(rows, wrap.Render("  - "+action))
	}
	rows = append(rows, highlightStyle.Render(wrap.Render(d.Priority)))
	if d.TeamReading != "" {
		rows = append(rows, "", mutedStyle.Render(wrap.Render(d.TeamReading)))
	}
	return strings.Join(rows, "\n")
}
