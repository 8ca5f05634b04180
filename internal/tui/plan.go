package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/planning"
	"github.com/sadopc/quotadesk/internal/service"
)

// upliftStep is how much one keypress moves the win-rate what-if.
const upliftStep = 5.0

type planModel struct {
	svc    *service.Service
	width  int
	height int

	offset int // months from the current one
	uplift float64

	plan *activity.MonthlyPlan
	sim  *service.Simulation

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formLA    *string
	formFV    *string
	formCAD   *string
	formLeads *string
	formWeek  *activity.WorkWeek
}

func newPlanModel(svc *service.Service) planModel {
	la, fv, cad, leads := "", "", "", ""
	week := activity.WorkWeekMonFri
	return planModel{
		svc:       svc,
		formLA:    &la,
		formFV:    &fv,
		formCAD:   &cad,
		formLeads: &leads,
		formWeek:  &week,
	}
}

func (p *planModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p planModel) month() string {
	now := p.svc.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return activity.MonthKey(first.AddDate(0, p.offset, 0))
}

type planDataMsg struct {
	plan *activity.MonthlyPlan
	sim  *service.Simulation
	err  error
}

func (p planModel) refresh() tea.Cmd {
	month, mods := p.month(), planning.Modifiers{WinRatePct: p.uplift}
	return func() tea.Msg {
		ctx := context.Background()
		plan, err := p.svc.Plan(ctx, month)
		if err != nil {
			return planDataMsg{err: err}
		}
		targets, err := p.svc.TargetsFor(ctx, month)
		if err != nil {
			return planDataMsg{err: err}
		}
		sim, err := p.svc.Simulate(ctx, month, targets, mods)
		return planDataMsg{plan: plan, sim: sim, err: err}
	}
}

func (p planModel) update(msg tea.Msg) (planModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case planDataMsg:
		if msg.err != nil {
			return p, func() tea.Msg { return errStatus("Load plan", msg.err) }
		}
		p.plan, p.sim = msg.plan, msg.sim
		return p, nil

	case logSavedMsg, planSavedMsg:
		return p, p.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			p.offset--
			return p, p.refresh()
		case key.Matches(msg, keys.Right):
			p.offset++
			return p, p.refresh()
		case key.Matches(msg, keys.Up):
			p.uplift += upliftStep
			return p, p.refresh()
		case key.Matches(msg, keys.Down):
			p.uplift = max(p.uplift-upliftStep, -90)
			return p, p.refresh()
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			return p.showForm()
		}
	}
	return p, nil
}

func (p planModel) showForm() (planModel, tea.Cmd) {
	current := activity.NewMonthlyPlan(p.month())
	if p.plan != nil {
		current = *p.plan
	} else if p.sim != nil {
		current.WorkdaysPerWeek = p.sim.Requirement.Targets.WorkdaysPerWeek
	}
	*p.formLA = strconv.Itoa(current.TargetWonLA)
	*p.formFV = strconv.Itoa(current.TargetWonFV)
	*p.formCAD = strconv.Itoa(current.TargetWonCAD)
	*p.formLeads = strconv.Itoa(current.TargetNewLeads)
	*p.formWeek = current.WorkdaysPerWeek

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Won target " + activity.ProductLA.Name()).Value(p.formLA).Validate(countValidator(0)),
			huh.NewInput().Title("Won target " + activity.ProductFV.Name()).Value(p.formFV).Validate(countValidator(0)),
			huh.NewInput().Title("Won target " + activity.ProductCAD.Name()).Value(p.formCAD).Validate(countValidator(0)),
			huh.NewInput().Title("New leads target").Value(p.formLeads).Validate(countValidator(0)),
			huh.NewSelect[activity.WorkWeek]().Title("Working days").
				Options(workWeekOptions()...).
				Value(p.formWeek),
		).Title("Targets for "+current.Month),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func workWeekOptions() []huh.Option[activity.WorkWeek] {
	return []huh.Option[activity.WorkWeek]{
		huh.NewOption("Monday to Friday", activity.WorkWeekMonFri),
		huh.NewOption("Monday to Saturday", activity.WorkWeekMonSat),
		huh.NewOption("Every day", activity.WorkWeekAll),
	}
}

func (p planModel) updateForm(msg tea.Msg) (planModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		plan := activity.NewMonthlyPlan(p.month())
		plan.TargetWonLA = atoi(*p.formLA)
		plan.TargetWonFV = atoi(*p.formFV)
		plan.TargetWonCAD = atoi(*p.formCAD)
		plan.TargetNewLeads = atoi(*p.formLeads)
		plan.WorkdaysPerWeek = *p.formWeek
		return p, p.save(plan)
	}
	return p, cmd
}

func (p planModel) save(plan activity.MonthlyPlan) tea.Cmd {
	return func() tea.Msg {
		saved, err := p.svc.SavePlan(context.Background(), plan)
		if err != nil {
			return errStatus("Save plan", err)
		}
		return planSavedMsg{plan: saved}
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func (p planModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("Monthly Plan")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	title := titleStyle.Render("Plan " + p.month())
	if p.uplift != 0 {
		title += accentStyle.Render(fmt.Sprintf("  what-if: win rate %+.0f%%", p.uplift))
	}

	if p.sim == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Loading...")))
	}
	if p.plan == nil || !p.plan.IsTargetSet() {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No targets for this month. Press n to set them."),
			"",
			mutedStyle.Render("  n: edit  ←/→: month"),
		)
		return panelStyle.Width(w).Render(content)
	}

	req, rem := p.sim.Requirement, p.sim.Remaining
	var rows []string
	rows = append(rows, title, "")

	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %6s %14s %14s %8s %8s",
		"Product", "Won", "Win rate", "Show rate", "Done", "Booked")))
	for _, prod := range activity.Products {
		r := p.sim.Rates.Rates(prod)
		rows = append(rows, fmt.Sprintf("  %-10s %6d %14s %14s %8d %8d",
			prod.Name(), req.Targets.Won[prod],
			rateWithSource(r.WinRate), rateWithSource(r.ShowRate),
			req.Required.Done[prod], req.Required.Booked[prod]))
	}
	apw := p.sim.Rates.AttemptsPerWon
	rows = append(rows, "",
		fmt.Sprintf("  %s %s", labelStyle.Render("Attempts per won"), highlightStyle.Render(fmt.Sprintf("%.1f (%s)", apw.Value, apw.Source))),
		fmt.Sprintf("  %s %s", labelStyle.Render("Attempts this month"), highlightStyle.Render(strconv.Itoa(req.Required.Attempts))),
	)

	rc := req.RealityCheck
	rows = append(rows, "", fmt.Sprintf("  %s %s",
		labelStyle.Render("Reality check"),
		statusStyleFor(rc.Status == planning.Realistic)(fmt.Sprintf("%s: %s", rc.Status, rc.Message))))

	rows = append(rows, "",
		titleStyle.Render(fmt.Sprintf("Remaining over %d workdays", rem.RemainingWorkdays)),
		mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s %8s %8s", "", "Month", "Done", "Left", "Per day")),
		stageRow("Attempts", rem.RequiredMonth.Attempts, rem.ActualMTD.Attempts, rem.Remaining.Attempts, rem.DailyPlan.Attempts),
		stageRow("Booked", rem.RequiredMonth.Booked, rem.ActualMTD.Booked, rem.Remaining.Booked, rem.DailyPlan.Booked),
		stageRow("Completed", rem.RequiredMonth.Done, rem.ActualMTD.Done, rem.Remaining.Done, rem.DailyPlan.Done),
		stageRow("Won", rem.RequiredMonth.Won, rem.ActualMTD.Won, rem.Remaining.Won, rem.DailyPlan.Won),
	)

	rows = append(rows, "", mutedStyle.Render("  n: edit  ←/→: month  ↑/↓: win-rate what-if"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func rateWithSource(r planning.RateDetail) string {
	return fmt.Sprintf("%s %s", formatPct(r.Value), r.Source)
}

func stageRow(label string, month, done, left, daily int) string {
	return fmt.Sprintf("  %-12s %8d %8d %8d %8d", label, month, done, left, daily)
}
