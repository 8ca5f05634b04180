package planning

import (
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// TodayPlan is the dashboard bundle: today's quotas plus month progress.
// With no plan, TargetSet is false and every quota is zero.
type TodayPlan struct {
	TargetSet         bool   `json:"is_target_set"`
	Month             string `json:"month"`
	RemainingWorkdays int    `json:"remaining_workdays"`
	CapacityExceeded  bool   `json:"warning_capacity_exceeded"`

	DailyAttempts int `json:"daily_attempts"`
	DailyBooked   int `json:"daily_booked"`
	DailyDone     int `json:"daily_done"`
	DailyWon      int `json:"daily_won"`
	DailyLeads    int `json:"daily_leads"`

	MonthTotal LeadStages `json:"month_total"`
	MTDActual  LeadStages `json:"mtd_actual"`

	Requirement *Requirement   `json:"requirement,omitempty"`
	Remaining   *RemainingPlan `json:"remaining,omitempty"`
}

// LeadStages are funnel stages plus new leads.
type LeadStages struct {
	Stages
	Leads int `json:"leads"`
}

// PlanToday runs the full chain for the month of plan: resolve rates over
// the whole history, size the funnel, then distribute the remainder.
// dailyCallCapacity <= 0 disables the capacity warning.
func PlanToday(logs []activity.DailyLog, plan *activity.MonthlyPlan, today time.Time, dailyCallCapacity int) TodayPlan {
	if plan == nil {
		return TodayPlan{Month: activity.MonthKey(today)}
	}

	rates := ResolveRates(logs, today)
	req := Size(TargetsFromPlan(*plan), rates, logs, today, Modifiers{})
	rem := Distribute(req, logs, plan.Month, plan.WorkdaysPerWeek, today)

	leadsActual := activity.AggregateWhere(logs, activity.InMonth(plan.Month)).NewLeads
	leadsLeft := max(0, plan.TargetNewLeads-leadsActual)
	dailyLeads := 0
	if rem.RemainingWorkdays > 0 {
		dailyLeads = ceil(float64(leadsLeft) / float64(rem.RemainingWorkdays))
	}

	return TodayPlan{
		TargetSet:         plan.IsTargetSet(),
		Month:             plan.Month,
		RemainingWorkdays: rem.RemainingWorkdays,
		CapacityExceeded:  dailyCallCapacity > 0 && rem.DailyPlan.Attempts > dailyCallCapacity,
		DailyAttempts:     rem.DailyPlan.Attempts,
		DailyBooked:       rem.DailyPlan.Booked,
		DailyDone:         rem.DailyPlan.Done,
		DailyWon:          rem.DailyPlan.Won,
		DailyLeads:        dailyLeads,
		MonthTotal:        LeadStages{Stages: rem.RequiredMonth, Leads: plan.TargetNewLeads},
		MTDActual:         LeadStages{Stages: rem.ActualMTD, Leads: leadsActual},
		Requirement:       &req,
		Remaining:         &rem,
	}
}
