package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/insights"
	"github.com/sadopc/quotadesk/internal/planning"
	"github.com/sadopc/quotadesk/internal/service"
)

func newTodayCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's quotas and pacing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.svc.TodayPlan(cmd.Context())
			if err != nil {
				return err
			}
			printToday(printer{cmd.OutOrStdout()}, t)
			return nil
		},
	}
}

func printToday(p printer, t *service.Today) {
	tp := t.Plan
	p.title(fmt.Sprintf("Today %s", t.Now.Format("Mon 2006-01-02 15:04 MST")))

	if !tp.TargetSet {
		p.line(mutedStyle.Render(fmt.Sprintf("No targets for %s. Set them with `quotadesk` > Plan.", tp.Month)))
		return
	}

	pace := t.Pace
	status := successStyle
	switch {
	case pace.Urgent:
		status = errorStyle
	case pace.Status == planning.PaceBehind:
		status = warningStyle
	}
	p.field("Pace", status.Render(string(pace.Status)))
	p.field("Won today", fmt.Sprintf("%d / %d (projected %d)", pace.ActualWon, pace.DailyQuota, pace.ProjectedWon))
	if pace.Message != "" {
		p.field("", pace.Message)
	}
	p.blank()

	l := t.Log.Normalized()
	row := func(stage string, done, quota int) []string {
		return []string{stage, strconv.Itoa(done), strconv.Itoa(quota)}
	}
	p.table([]string{"Stage", "Done", "Quota"}, [][]string{
		row("Attempts", l.Attempts(), tp.DailyAttempts),
		row("Booked", l.BookedTotal(), tp.DailyBooked),
		row("Completed", l.DoneTotal(), tp.DailyDone),
		row("Won", l.WonTotal(), tp.DailyWon),
		row("New leads", l.NewLeads, tp.DailyLeads),
	})
	if tp.CapacityExceeded {
		p.line(warningStyle.Render("Attempts quota is above your daily call capacity."))
	}
	p.field("Month", fmt.Sprintf("%s, %d workdays left, won %d / %d",
		tp.Month, tp.RemainingWorkdays, tp.MTDActual.Won, tp.MonthTotal.Won))
}

func newPlanCommand(e *env) *cobra.Command {
	var (
		month      string
		winUplift  float64
		showUplift float64
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Size the funnel for a month and spread what is left over its workdays",
		Long: `Prints the conversion rates in use and where each comes from, the monthly
attempts, bookings and completed appointments the won targets require, a
reality check against your history and the remaining daily plan.

Example:
  quotadesk plan --month 2025-03 --win-uplift 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month == "" {
				month = activity.MonthKey(e.svc.Now())
			}
			ctx := cmd.Context()
			targets, err := e.svc.TargetsFor(ctx, month)
			if err != nil {
				return err
			}
			sim, err := e.svc.Simulate(ctx, month, targets, planning.Modifiers{
				WinRatePct:  winUplift,
				ShowRatePct: showUplift,
			})
			if err != nil {
				return err
			}
			printPlan(printer{cmd.OutOrStdout()}, sim)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current)")
	cmd.Flags().Float64Var(&winUplift, "win-uplift", 0, "what-if change of every win rate, in percent")
	cmd.Flags().Float64Var(&showUplift, "show-uplift", 0, "what-if change of every show rate, in percent")
	return cmd
}

func rateCell(r planning.RateDetail) string {
	return fmt.Sprintf("%s (%s)", pct(r.Value), r.Source)
}

func printPlan(p printer, sim *service.Simulation) {
	req, rem := sim.Requirement, sim.Remaining
	title := "Plan " + sim.Month
	if m := req.Modifiers; m.WinRatePct != 0 || m.ShowRatePct != 0 {
		title += fmt.Sprintf("  what-if: win %+.0f%% show %+.0f%%", m.WinRatePct, m.ShowRatePct)
	}
	p.title(title)

	if req.WonTotal() == 0 {
		p.line(mutedStyle.Render("No targets for this month."))
	}

	var rows [][]string
	for _, prod := range activity.Products {
		r := sim.Rates.Rates(prod)
		rows = append(rows, []string{
			prod.Name(),
			rateCell(r.WinRate),
			rateCell(r.ShowRate),
			strconv.Itoa(req.Targets.Won[prod]),
			strconv.Itoa(req.Required.Done[prod]),
			strconv.Itoa(req.Required.Booked[prod]),
		})
	}
	p.table([]string{"Product", "Win rate", "Show rate", "Won", "Completed", "Booked"}, rows)
	p.field("Attempts per won", fmt.Sprintf("%.1f (%s)", sim.Rates.AttemptsPerWon.Value, sim.Rates.AttemptsPerWon.Source))
	p.field("Month requires", fmt.Sprintf("%d attempts, %d booked, %d completed, %d won",
		req.Required.Attempts, req.Required.BookedTotal, req.Required.DoneTotal, req.WonTotal()))
	p.field("Flat daily", fmt.Sprintf("%d attempts, %.1f booked, %.1f completed, %.1f won",
		req.Daily.Attempts, req.Daily.Booked, req.Daily.Done, req.Daily.Won))

	rc := req.RealityCheck
	status := successStyle
	switch rc.Status {
	case planning.Ambitious:
		status = warningStyle
	case planning.Aggressive:
		status = errorStyle
	}
	p.field("Reality check", status.Render(string(rc.Status))+
		mutedStyle.Render(fmt.Sprintf("  x%.2f of %.1f won/month", rc.GrowthFactor, rc.AvgMonthlyWon)))
	if rc.Message != "" {
		p.field("", rc.Message)
	}
	p.blank()

	row := func(stage string, month, done, left, daily int) []string {
		return []string{stage, strconv.Itoa(month), strconv.Itoa(done), strconv.Itoa(left), strconv.Itoa(daily)}
	}
	p.table([]string{"Stage", "Month", "Done", "Left", "Per day"}, [][]string{
		row("Attempts", rem.RequiredMonth.Attempts, rem.ActualMTD.Attempts, rem.Remaining.Attempts, rem.DailyPlan.Attempts),
		row("Booked", rem.RequiredMonth.Booked, rem.ActualMTD.Booked, rem.Remaining.Booked, rem.DailyPlan.Booked),
		row("Completed", rem.RequiredMonth.Done, rem.ActualMTD.Done, rem.Remaining.Done, rem.DailyPlan.Done),
		row("Won", rem.RequiredMonth.Won, rem.ActualMTD.Won, rem.Remaining.Won, rem.DailyPlan.Won),
	})
	p.field("Remaining workdays", rem.RemainingWorkdays)
}

func newDiagnoseCommand(e *env) *cobra.Command {
	var period, from, to string
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Find the weakest funnel stage of a period",
		Long: `Computes the KPI report, strategic insights and diagnosis of a period.
Passing --from and --to selects a custom inclusive range.

Examples:
  quotadesk diagnose --period week
  quotadesk diagnose --from 2025-02-01 --to 2025-02-28`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("period") && (from != "" || to != "") {
				period = string(activity.PeriodCustom)
			}
			pd, err := activity.ParsePeriod(period)
			if err != nil {
				return err
			}
			if pd == activity.PeriodCustom {
				for _, d := range []string{from, to} {
					if _, err := activity.ParseDate(d); err != nil {
						return fmt.Errorf("custom period needs --from and --to as YYYY-MM-DD: %w", err)
					}
				}
			}
			a, err := e.svc.Diagnose(cmd.Context(), pd, from, to)
			if err != nil {
				return err
			}
			printAnalysis(printer{cmd.OutOrStdout()}, a)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", string(activity.PeriodMonth), "today, week, month or custom")
	cmd.Flags().StringVar(&from, "from", "", "first day of a custom period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day of a custom period (YYYY-MM-DD)")
	return cmd
}

func printAnalysis(p printer, a *service.Analysis) {
	p.title(fmt.Sprintf("Diagnosis %s  %s to %s", a.Period, a.From, a.To))
	p.field("Days logged", a.Days)

	k := a.KPIs
	score := successStyle
	switch k.Score.Label {
	case insights.ScoreGood:
		score = warningStyle
	case insights.ScoreBelowStandard:
		score = errorStyle
	}
	p.field("Score", score.Render(fmt.Sprintf("%.0f/100 %s", k.Score.Total, k.Score.Label)))
	p.field("Answer rate", pct(k.Rates.Answer))
	p.field("Booking rate", pct(k.Rates.Booking))
	p.field("Show rate", pct(k.Rates.Show))
	p.field("Win rate", pct(k.Rates.Win))
	p.blank()

	s := a.Strategic
	p.field("Bottleneck", s.Bottleneck)
	p.field("Best product", s.BestProduct)
	p.field("Worst product", s.WorstProduct)
	p.field("Status", fmt.Sprintf("performance %s, intensity %s, effectiveness %s",
		s.Status.Performance, s.Status.Intensity, s.Status.Effectiveness))
	for _, al := range s.Alerts {
		style := successStyle
		switch al.Level {
		case insights.AlertDanger:
			style = errorStyle
		case insights.AlertWarning:
			style = warningStyle
		}
		p.line("  " + style.Render("! "+al.Message))
	}
	p.blank()

	d := a.Diagnosis
	p.title("Diagnosis")
	p.field("Stage", string(d.Bottleneck))
	p.field("Reading", d.Diagnosis)
	p.field("What's working", d.WhatsWorking)
	p.field("Critical area", d.CriticalArea)
	p.field("Actions", bullet(d.Actions))
	p.field("Priority", d.Priority)
	if d.TeamReading != "" {
		p.field("Team", d.TeamReading)
	}
}
