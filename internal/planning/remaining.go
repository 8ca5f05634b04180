package planning

import (
	"sort"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// RemainingWorkdays counts the working days left in month, today included.
// A past month has none; a future month counts from its first day.
func RemainingWorkdays(week activity.WorkWeek, month string, today time.Time) int {
	current := activity.MonthKey(today)
	if month == "" {
		month = current
	}
	if month < current {
		return 0
	}

	first, err := activity.ParseMonth(month, time.UTC)
	if err != nil {
		return 0
	}
	startDay := 1
	if month == current {
		startDay = today.Day()
	}

	n := 0
	last := activity.DaysIn(first)
	for d := startDay; d <= last; d++ {
		date := time.Date(first.Year(), first.Month(), d, 12, 0, 0, 0, time.UTC)
		if week.IsWorkday(date.Weekday()) {
			n++
		}
	}
	return n
}

// Stages holds one integer per funnel stage.
type Stages struct {
	Attempts int `json:"attempts"`
	Booked   int `json:"booked"`
	Done     int `json:"done"`
	Won      int `json:"won"`
}

// StageRates holds one exact fractional value per funnel stage.
type StageRates struct {
	Attempts float64 `json:"attempts"`
	Booked   float64 `json:"booked"`
	Done     float64 `json:"done"`
	Won      float64 `json:"won"`
}

// ActualStages reads the funnel stages off an aggregate.
func ActualStages(agg activity.DailyLog) Stages {
	return Stages{
		Attempts: agg.Attempts(),
		Booked:   agg.BookedTotal(),
		Done:     agg.DoneTotal(),
		Won:      agg.WonTotal(),
	}
}

// DateRange compares the month a caller asked for with the rows it got.
type DateRange struct {
	ExpectedStart        string `json:"expected_start"`
	ExpectedEndExclusive string `json:"expected_end_exclusive"`
	ActualMinDate        string `json:"actual_min_date"`
	ActualMaxDate        string `json:"actual_max_date"`
	IsOutOfRange         bool   `json:"is_out_of_range"`
}

type Sample struct {
	Date     string `json:"date"`
	Attempts int    `json:"attempts"`
}

// Debug is the operator-facing trace of a distribution.
type Debug struct {
	MonthKey          string     `json:"month_key"`
	WorkdaysRemaining int        `json:"workdays_remaining"`
	LogsCount         int        `json:"logs_count"`
	Range             DateRange  `json:"range"`
	Samples           []Sample   `json:"samples"`
	RequiredMonth     Stages     `json:"required_month"`
	ActualMTD         Stages     `json:"actual_mtd"`
	Remaining         Stages     `json:"remaining"`
	DailyAverage      StageRates `json:"daily_average"`
	DailyPlan         Stages     `json:"daily_plan"`
}

// RemainingPlan is what is left to do this month and how much of it falls
// on each remaining working day.
type RemainingPlan struct {
	RemainingWorkdays int        `json:"remaining_workdays"`
	RequiredMonth     Stages     `json:"required_month"`
	ActualMTD         Stages     `json:"actual_mtd"`
	Remaining         Stages     `json:"remaining"`
	DailyAverage      StageRates `json:"daily_average"`
	DailyPlan         Stages     `json:"daily_plan"`
	Debug             Debug      `json:"debug"`
}

const notAvailable = "N/A"

// Distribute subtracts month-to-date actuals from the monthly requirement
// and spreads the rest over the remaining working days. Rows outside month
// are dropped even if the caller already filtered them.
func Distribute(req Requirement, logs []activity.DailyLog, month string, week activity.WorkWeek, today time.Time) RemainingPlan {
	mtd := activity.Filter(logs, activity.InMonth(month))
	workdays := RemainingWorkdays(week, month, today)

	required := Stages{
		Attempts: req.Required.Attempts,
		Booked:   req.Required.BookedTotal,
		Done:     req.Required.DoneTotal,
		Won:      req.WonTotal(),
	}
	actual := ActualStages(activity.Aggregate(mtd))
	remaining := Stages{
		Attempts: max(0, required.Attempts-actual.Attempts),
		Booked:   max(0, required.Booked-actual.Booked),
		Done:     max(0, required.Done-actual.Done),
		Won:      max(0, required.Won-actual.Won),
	}

	div := float64(max(1, workdays))
	avg := StageRates{
		Attempts: float64(remaining.Attempts) / div,
		Booked:   float64(remaining.Booked) / div,
		Done:     float64(remaining.Done) / div,
		Won:      float64(remaining.Won) / div,
	}

	var daily Stages
	if workdays > 0 {
		daily = Stages{
			Attempts: ceil(avg.Attempts),
			Booked:   ceil(avg.Booked),
			Done:     ceil(avg.Done),
			Won:      ceil(avg.Won),
		}
	}

	plan := RemainingPlan{
		RemainingWorkdays: workdays,
		RequiredMonth:     required,
		ActualMTD:         actual,
		Remaining:         remaining,
		DailyAverage:      avg,
		DailyPlan:         daily,
	}
	plan.Debug = Debug{
		MonthKey:          month,
		WorkdaysRemaining: workdays,
		LogsCount:         len(mtd),
		Range:             checkRange(mtd, month),
		Samples:           samples(mtd, 3),
		RequiredMonth:     required,
		ActualMTD:         actual,
		Remaining:         remaining,
		DailyAverage:      avg,
		DailyPlan:         daily,
	}
	return plan
}

func checkRange(logs []activity.DailyLog, month string) DateRange {
	r := DateRange{
		ExpectedStart: month + "-01",
		ActualMinDate: notAvailable,
		ActualMaxDate: notAvailable,
	}
	if next, err := activity.NextMonthKey(month); err == nil {
		r.ExpectedEndExclusive = next + "-01"
	}
	if len(logs) == 0 {
		return r
	}

	r.ActualMinDate, r.ActualMaxDate = logs[0].Date, logs[0].Date
	for _, l := range logs[1:] {
		if l.Date < r.ActualMinDate {
			r.ActualMinDate = l.Date
		}
		if l.Date > r.ActualMaxDate {
			r.ActualMaxDate = l.Date
		}
	}
	r.IsOutOfRange = r.ActualMinDate < r.ExpectedStart ||
		(r.ExpectedEndExclusive != "" && r.ActualMaxDate >= r.ExpectedEndExclusive)
	return r
}

func samples(logs []activity.DailyLog, n int) []Sample {
	sorted := make([]activity.DailyLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	out := make([]Sample, 0, min(n, len(sorted)))
	for _, l := range sorted[:min(n, len(sorted))] {
		out = append(out, Sample{Date: l.Date, Attempts: l.Normalized().Attempts()})
	}
	return out
}
