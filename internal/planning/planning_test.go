package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/quotadesk/internal/activity"
)

var rome = mustLocation("Europe/Rome")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// today is Wednesday 2025-03-12, 14:00 in Rome.
var today = time.Date(2025, 3, 12, 14, 0, 0, 0, rome)

func logOn(date string, mut func(*activity.DailyLog)) activity.DailyLog {
	l := activity.NewDailyLog(date)
	if mut != nil {
		mut(&l)
	}
	return l.Normalized()
}

// ============================================================
// Rate resolver
// ============================================================

func TestResolveRatesEmptyHistoryFallsBack(t *testing.T) {
	ctx := ResolveRates(nil, today)
	for _, p := range activity.Products {
		r := ctx.Rates(p)
		assert.Equal(t, RateDetail{Value: DefaultWinRate(p), Source: SourceStandard}, r.WinRate, p)
		assert.Equal(t, RateDetail{Value: DefaultShowRate, Source: SourceStandard}, r.ShowRate, p)
	}
	assert.Equal(t, RateDetail{Value: DefaultAttemptsPerWon, Source: SourceStandard}, ctx.AttemptsPerWon)
}

func TestResolveRatesMTDWinRate(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-03", func(l *activity.DailyLog) { l.DoneLA, l.WonLA = 4, 2 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 0.5, Source: SourceMTD}, ctx.Rates(activity.ProductLA).WinRate)
	assert.Equal(t, SourceStandard, ctx.Rates(activity.ProductLA).ShowRate.Source)
}

func TestResolveRatesMTDWinsOverWiderWindows(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-05", func(l *activity.DailyLog) { l.DoneFV, l.WonFV = 2, 1 }),
		logOn("2025-02-10", func(l *activity.DailyLog) { l.DoneFV, l.WonFV = 10, 5 }),
		logOn("2024-06-10", func(l *activity.DailyLog) { l.DoneFV, l.WonFV = 20, 2 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 0.5, Source: SourceMTD}, ctx.Rates(activity.ProductFV).WinRate)
}

func TestResolveRatesWinRate60dByVolume(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-02-10", func(l *activity.DailyLog) { l.DoneFV, l.WonFV = 5, 1 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 0.2, Source: Source60d}, ctx.Rates(activity.ProductFV).WinRate)
}

func TestResolveRatesWinRateAllTime(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2024-08-01", func(l *activity.DailyLog) { l.DoneCAD, l.WonCAD = 6, 3 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 0.5, Source: SourceAllTime}, ctx.Rates(activity.ProductCAD).WinRate)
}

func TestResolveRatesZeroDenominatorDoesNotQualify(t *testing.T) {
	logs := []activity.DailyLog{
		// won without a completed appointment this month
		logOn("2025-03-04", func(l *activity.DailyLog) { l.WonLA = 1 }),
		logOn("2025-02-20", func(l *activity.DailyLog) { l.DoneLA, l.WonLA = 5, 2 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 0.6, Source: Source60d}, ctx.Rates(activity.ProductLA).WinRate)
}

func TestResolveRatesShowRateSkipsWindowWithoutCompleted(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-04", func(l *activity.DailyLog) { l.BookedLA = 3 }),
		logOn("2025-01-20", func(l *activity.DailyLog) { l.BookedLA, l.DoneLA = 1, 1 }),
	}
	ctx := ResolveRates(logs, today)
	// 60d window: booked 4, done 1
	assert.Equal(t, RateDetail{Value: 0.25, Source: Source60d}, ctx.Rates(activity.ProductLA).ShowRate)
}

func TestResolveRatesClamping(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-04", func(l *activity.DailyLog) {
			l.BookedCAD, l.DoneCAD, l.WonCAD = 1, 3, 5
		}),
	}
	ctx := ResolveRates(logs, today)
	r := ctx.Rates(activity.ProductCAD)
	assert.Equal(t, 1.0, r.WinRate.Value)
	assert.Equal(t, 1.5, r.ShowRate.Value)
}

func TestResolveRatesClampingHoldsForManyInputs(t *testing.T) {
	for booked := 0; booked < 6; booked++ {
		for done := 0; done < 12; done += 3 {
			for won := 0; won < 12; won += 4 {
				logs := []activity.DailyLog{logOn("2025-03-02", func(l *activity.DailyLog) {
					l.BookedLA, l.DoneLA, l.WonLA = booked, done, won
				})}
				r := ResolveRates(logs, today).Rates(activity.ProductLA)
				assert.GreaterOrEqual(t, r.WinRate.Value, 0.0)
				assert.LessOrEqual(t, r.WinRate.Value, 1.0)
				assert.GreaterOrEqual(t, r.ShowRate.Value, 0.0)
				assert.LessOrEqual(t, r.ShowRate.Value, 1.5)
			}
		}
	}
}

func TestResolveRatesAttemptsPerWon(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-04", func(l *activity.DailyLog) {
			l.CallsAnswered, l.CallsRefused, l.MessagesSent = 20, 20, 10
			l.WonFV = 1
		}),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 50, Source: SourceMTD}, ctx.AttemptsPerWon)
}

func TestResolveRatesAttemptsPerWon60dNeedsThreeWins(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-02-04", func(l *activity.DailyLog) { l.CallsAnswered, l.WonLA = 90, 2 }),
	}
	ctx := ResolveRates(logs, today)
	assert.Equal(t, SourceStandard, ctx.AttemptsPerWon.Source)

	logs = append(logs, logOn("2025-02-05", func(l *activity.DailyLog) { l.CallsAnswered, l.WonCAD = 30, 1 }))
	ctx = ResolveRates(logs, today)
	assert.Equal(t, RateDetail{Value: 40, Source: Source60d}, ctx.AttemptsPerWon)
}

// ============================================================
// Funnel sizing
// ============================================================

func standardRates() Context { return ResolveRates(nil, today) }

func targets(la, fv, cad int) Targets {
	return Targets{
		Won:             map[activity.Product]int{activity.ProductLA: la, activity.ProductFV: fv, activity.ProductCAD: cad},
		WorkdaysPerWeek: activity.WorkWeekMonFri,
	}
}

func TestSizeZeroTargets(t *testing.T) {
	req := Size(targets(0, 0, 0), standardRates(), nil, today, Modifiers{})
	assert.Zero(t, req.Required.Attempts)
	assert.Zero(t, req.Required.BookedTotal)
	assert.Zero(t, req.Required.DoneTotal)
	for _, p := range activity.Products {
		assert.Zero(t, req.Required.Done[p])
		assert.Zero(t, req.Required.Booked[p])
	}
	assert.Equal(t, FlatDaily{}, req.Daily)
}

func TestSizeStandardRates(t *testing.T) {
	req := Size(targets(3, 0, 0), standardRates(), nil, today, Modifiers{})
	assert.Equal(t, 10, req.Required.Done[activity.ProductLA])
	assert.Equal(t, 15, req.Required.Booked[activity.ProductLA])
	assert.Equal(t, 240, req.Required.Attempts)
	assert.Equal(t, 10, req.Required.DoneTotal)
	assert.Equal(t, 15, req.Required.BookedTotal)

	assert.Equal(t, FlatDaily{Attempts: 11, Booked: 0.7, Done: 0.5, Won: 0.1}, req.Daily)
}

func TestSizeWinModifierShrinksAttempts(t *testing.T) {
	req := Size(targets(3, 0, 0), standardRates(), nil, today, Modifiers{WinRatePct: 20})
	assert.Equal(t, 9, req.Required.Done[activity.ProductLA])
	assert.Equal(t, 200, req.Required.Attempts)
}

func TestSizeModifiedRateClampedBelowOne(t *testing.T) {
	rates := standardRates()
	rates.Products[activity.ProductFV] = ProductRates{
		WinRate:  RateDetail{Value: 0.9, Source: SourceMTD},
		ShowRate: RateDetail{Value: 1.2, Source: SourceMTD},
	}
	req := Size(targets(0, 1, 0), rates, nil, today, Modifiers{WinRatePct: 30})
	assert.Equal(t, 2, req.Required.Done[activity.ProductFV])   // ceil(1/0.99)
	assert.Equal(t, 3, req.Required.Booked[activity.ProductFV]) // ceil(2/0.99)
}

func TestSizeForwardFunnelReproducesTargets(t *testing.T) {
	winRates := []float64{0.1, 0.25, 0.3, 0.33, 0.5, 0.8, 1.0}
	showRates := []float64{0.2, 0.6, 0.7, 1.0, 1.5}
	for _, w := range winRates {
		for _, s := range showRates {
			rates := standardRates()
			rates.Products[activity.ProductLA] = ProductRates{
				WinRate:  RateDetail{Value: w, Source: SourceMTD},
				ShowRate: RateDetail{Value: s, Source: SourceMTD},
			}
			for target := 1; target <= 25; target++ {
				req := Size(targets(target, 0, 0), rates, nil, today, Modifiers{})
				done := req.Required.Done[activity.ProductLA]
				booked := req.Required.Booked[activity.ProductLA]

				ew, es := modified(w, 1), modified(s, 1)
				assert.InDelta(t, float64(target), float64(done)*ew, 1+1e-9, "win=%v target=%d", w, target)
				assert.InDelta(t, float64(done), float64(booked)*es, 1+1e-9, "show=%v done=%d", s, done)
			}
		}
	}
}

func TestCheckRealityBoundaries(t *testing.T) {
	// 30 wins inside the last 90 days -> average 10 per month
	logs := []activity.DailyLog{
		logOn("2025-01-20", func(l *activity.DailyLog) { l.WonLA = 15 }),
		logOn("2025-03-01", func(l *activity.DailyLog) { l.WonFV = 15 }),
	}

	rc := CheckReality(13, logs, today)
	assert.InDelta(t, 1.3, rc.GrowthFactor, 1e-9)
	assert.Equal(t, Ambitious, rc.Status)
	assert.Contains(t, rc.Message, "+30%")

	assert.Equal(t, Aggressive, CheckReality(19, logs, today).Status)
	assert.Equal(t, Realistic, CheckReality(12, logs, today).Status)
}

func TestCheckRealityWithoutHistory(t *testing.T) {
	rc := CheckReality(1, nil, today)
	assert.Equal(t, 1.0, rc.GrowthFactor)
	assert.Equal(t, Realistic, rc.Status)
	assert.Zero(t, rc.AvgMonthlyWon)
}

// ============================================================
// Workdays
// ============================================================

func TestRemainingWorkdaysCurrentMonth(t *testing.T) {
	assert.Equal(t, 14, RemainingWorkdays(activity.WorkWeekMonFri, "2025-03", today))
	assert.Equal(t, 17, RemainingWorkdays(activity.WorkWeekMonSat, "2025-03", today))
	assert.Equal(t, 20, RemainingWorkdays(activity.WorkWeekAll, "2025-03", today))
}

func TestRemainingWorkdaysPastAndFuture(t *testing.T) {
	assert.Zero(t, RemainingWorkdays(activity.WorkWeekAll, "2025-02", today))
	assert.Equal(t, 22, RemainingWorkdays(activity.WorkWeekMonFri, "2025-04", today))
	assert.Equal(t, 30, RemainingWorkdays(activity.WorkWeekAll, "2025-04", today))
}

func TestRemainingWorkdaysBounds(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, rome)
	for d := 0; d < 366; d += 7 {
		now := start.AddDate(0, 0, d)
		month := activity.MonthKey(now)
		days := activity.DaysIn(now)
		for _, w := range []activity.WorkWeek{activity.WorkWeekMonFri, activity.WorkWeekMonSat, activity.WorkWeekAll} {
			n := RemainingWorkdays(w, month, now)
			assert.GreaterOrEqual(t, n, 0)
			assert.LessOrEqual(t, n, days)
		}
		assert.Equal(t, days-now.Day()+1, RemainingWorkdays(activity.WorkWeekAll, month, now))
	}
}

// ============================================================
// Distributor
// ============================================================

func TestDistributeSpreadsRemainder(t *testing.T) {
	req := Size(targets(3, 0, 0), standardRates(), nil, today, Modifiers{})
	logs := []activity.DailyLog{
		logOn("2025-03-03", func(l *activity.DailyLog) {
			l.CallsAnswered, l.MessagesSent = 30, 10
			l.BookedLA, l.DoneLA, l.WonLA = 2, 1, 1
		}),
	}
	plan := Distribute(req, logs, "2025-03", activity.WorkWeekMonFri, today)

	assert.Equal(t, 14, plan.RemainingWorkdays)
	assert.Equal(t, Stages{Attempts: 240, Booked: 15, Done: 10, Won: 3}, plan.RequiredMonth)
	assert.Equal(t, Stages{Attempts: 40, Booked: 2, Done: 1, Won: 1}, plan.ActualMTD)
	assert.Equal(t, Stages{Attempts: 200, Booked: 13, Done: 9, Won: 2}, plan.Remaining)
	assert.InDelta(t, 200.0/14, plan.DailyAverage.Attempts, 1e-9)
	assert.Equal(t, Stages{Attempts: 15, Booked: 1, Done: 1, Won: 1}, plan.DailyPlan)
}

func TestDistributeNeverNegative(t *testing.T) {
	req := Size(targets(1, 0, 0), standardRates(), nil, today, Modifiers{})
	logs := []activity.DailyLog{
		logOn("2025-03-03", func(l *activity.DailyLog) {
			l.CallsAnswered = 500
			l.BookedLA, l.DoneLA, l.WonLA = 20, 20, 10
		}),
	}
	plan := Distribute(req, logs, "2025-03", activity.WorkWeekMonFri, today)
	assert.Equal(t, Stages{}, plan.Remaining)
	assert.Equal(t, Stages{}, plan.DailyPlan)
}

func TestDistributeDropsRowsOutsideMonth(t *testing.T) {
	req := Size(targets(3, 0, 0), standardRates(), nil, today, Modifiers{})
	logs := []activity.DailyLog{
		logOn("2025-03-05", func(l *activity.DailyLog) { l.WonLA = 1 }),
		logOn("2025-02-28", func(l *activity.DailyLog) { l.WonLA = 10 }),
		logOn("2025-04-01", func(l *activity.DailyLog) { l.WonLA = 10 }),
	}
	plan := Distribute(req, logs, "2025-03", activity.WorkWeekMonFri, today)
	assert.Equal(t, 1, plan.ActualMTD.Won)
	assert.Equal(t, 1, plan.Debug.LogsCount)
	assert.Equal(t, DateRange{
		ExpectedStart:        "2025-03-01",
		ExpectedEndExclusive: "2025-04-01",
		ActualMinDate:        "2025-03-05",
		ActualMaxDate:        "2025-03-05",
	}, plan.Debug.Range)
}

func TestDistributePastMonthHasNoDailyPlan(t *testing.T) {
	req := Size(targets(3, 0, 0), standardRates(), nil, today, Modifiers{})
	plan := Distribute(req, nil, "2025-02", activity.WorkWeekMonFri, today)
	assert.Zero(t, plan.RemainingWorkdays)
	assert.Equal(t, Stages{}, plan.DailyPlan)
	assert.Equal(t, 240.0, plan.DailyAverage.Attempts)
	assert.Equal(t, "N/A", plan.Debug.Range.ActualMinDate)
}

func TestDistributeSamplesSortedByDate(t *testing.T) {
	logs := []activity.DailyLog{
		logOn("2025-03-09", func(l *activity.DailyLog) { l.CallsAnswered = 9 }),
		logOn("2025-03-02", func(l *activity.DailyLog) { l.CallsAnswered = 2 }),
		logOn("2025-03-05", func(l *activity.DailyLog) { l.CallsAnswered = 5 }),
		logOn("2025-03-01", func(l *activity.DailyLog) { l.MessagesSent = 1 }),
	}
	plan := Distribute(Size(targets(0, 0, 0), standardRates(), nil, today, Modifiers{}), logs, "2025-03", activity.WorkWeekMonFri, today)
	require.Len(t, plan.Debug.Samples, 3)
	assert.Equal(t, []Sample{{"2025-03-01", 1}, {"2025-03-02", 2}, {"2025-03-05", 5}}, plan.Debug.Samples)
	assert.False(t, plan.Debug.Range.IsOutOfRange)
}

func TestCheckRangeFlagsForeignRows(t *testing.T) {
	r := checkRange([]activity.DailyLog{{Date: "2025-03-04"}, {Date: "2025-04-02"}}, "2025-03")
	assert.True(t, r.IsOutOfRange)
	assert.Equal(t, "2025-04-02", r.ActualMaxDate)
}

// ============================================================
// Today plan
// ============================================================

func TestPlanTodayWithoutPlan(t *testing.T) {
	tp := PlanToday(nil, nil, today, 0)
	assert.False(t, tp.TargetSet)
	assert.Equal(t, "2025-03", tp.Month)
	assert.Zero(t, tp.DailyAttempts)
	assert.Zero(t, tp.DailyWon)
	assert.Nil(t, tp.Requirement)
}

func TestPlanTodayZeroTargetPlan(t *testing.T) {
	plan := activity.NewMonthlyPlan("2025-03")
	tp := PlanToday(nil, &plan, today, 0)
	assert.False(t, tp.TargetSet)
	assert.Equal(t, 14, tp.RemainingWorkdays)
	assert.Equal(t, LeadStages{}, tp.MonthTotal)
	assert.Zero(t, tp.DailyAttempts+tp.DailyBooked+tp.DailyDone+tp.DailyWon+tp.DailyLeads)
}

func TestPlanTodayLeadsAndCapacity(t *testing.T) {
	plan := activity.NewMonthlyPlan("2025-03")
	plan.TargetWonLA = 3
	plan.TargetNewLeads = 30
	logs := []activity.DailyLog{
		logOn("2025-03-03", func(l *activity.DailyLog) { l.NewLeads = 2 }),
	}
	tp := PlanToday(logs, &plan, today, 10)
	assert.True(t, tp.TargetSet)
	assert.Equal(t, 2, tp.DailyLeads) // ceil(28 / 14)
	assert.Equal(t, 18, tp.DailyAttempts)
	assert.True(t, tp.CapacityExceeded)
	assert.Equal(t, 2, tp.MTDActual.Leads)
	assert.Equal(t, 30, tp.MonthTotal.Leads)

	assert.False(t, PlanToday(logs, &plan, today, 0).CapacityExceeded)
}

// ============================================================
// Pacing
// ============================================================

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 12, hour, minute, 0, 0, rome)
}

func TestProjectBehindUrgent(t *testing.T) {
	p := Project(at(14, 0), 0, 2, DefaultWorkday)
	assert.Equal(t, 0.5, p.DayProgress)
	assert.Zero(t, p.ProjectedWon)
	assert.Equal(t, PaceBehind, p.Status)
	assert.True(t, p.Urgent)
	assert.Contains(t, p.Message, "still need 2")
}

func TestProjectBehindSoft(t *testing.T) {
	p := Project(at(16, 30), 1, 3, DefaultWorkday)
	assert.Equal(t, 1, p.ProjectedWon)
	assert.Equal(t, PaceBehind, p.Status)
	assert.False(t, p.Urgent)
	assert.Contains(t, p.Message, "miss 2")
}

func TestProjectStatuses(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		actual int
		quota  int
		want   PaceStatus
	}{
		{"reached", at(10, 0), 2, 2, PaceTargetReached},
		{"before workday", at(7, 30), 0, 2, PaceNotStarted},
		{"first half hour", at(9, 20), 0, 2, PaceNotStarted},
		{"ahead", at(12, 0), 1, 2, PaceAhead},
		{"on track", at(14, 0), 1, 2, PaceOnTrack},
		{"zero quota not reached", at(15, 0), 0, 0, PaceBehind},
		{"zero quota with wins", at(15, 0), 1, 0, PaceAhead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(tt.now, tt.actual, tt.quota, DefaultWorkday).Status)
		})
	}
}

func TestProjectClampsProgress(t *testing.T) {
	early := Project(at(6, 0), 1, 5, DefaultWorkday)
	assert.Zero(t, early.HoursPassed)
	assert.Equal(t, 0.05, early.DayProgress)
	assert.Equal(t, PaceNotStarted, early.Status)

	late := Project(at(22, 15), 1, 5, DefaultWorkday)
	assert.Equal(t, 10.0, late.HoursPassed)
	assert.Equal(t, 1.0, late.DayProgress)
}
