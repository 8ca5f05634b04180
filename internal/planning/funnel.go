package planning

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// StandardDaysPerMonth is the flat divisor of the month-level daily estimate.
// It ignores the calendar on purpose; the calendar-exact quota comes from
// Distribute.
const StandardDaysPerMonth = 22

// maxModifiedRate keeps modified rates away from 1 so divisions stay bounded.
const maxModifiedRate = 0.99

// Reality check thresholds on target / trailing average.
const (
	aggressiveGrowth = 1.8
	ambitiousGrowth  = 1.2
)

// Targets are the monthly won-contract targets.
type Targets struct {
	Won             map[activity.Product]int `json:"won"`
	WorkdaysPerWeek activity.WorkWeek        `json:"workdays_per_week"`
}

// TargetsFromPlan copies a plan's won targets.
func TargetsFromPlan(p activity.MonthlyPlan) Targets {
	t := Targets{Won: make(map[activity.Product]int, len(activity.Products)), WorkdaysPerWeek: p.WorkdaysPerWeek}
	for _, prod := range activity.Products {
		t.Won[prod] = p.TargetWon(prod)
	}
	return t
}

func (t Targets) Total() int {
	n := 0
	for _, p := range activity.Products {
		n += t.Won[p]
	}
	return n
}

// Modifiers are what-if percentage uplifts applied to resolved rates.
type Modifiers struct {
	WinRatePct  float64 `json:"win_rate_pct"`
	ShowRatePct float64 `json:"show_rate_pct"`
}

// Factors never drop below minFactor, so a -100% uplift cannot divide by zero.
const minFactor = 0.01

func (m Modifiers) winFactor() float64  { return math.Max(minFactor, 1+m.WinRatePct/100) }
func (m Modifiers) showFactor() float64 { return math.Max(minFactor, 1+m.ShowRatePct/100) }

// Required counts at every funnel stage for the month.
type Required struct {
	Attempts    int                      `json:"attempts"`
	BookedTotal int                      `json:"booked_total"`
	DoneTotal   int                      `json:"done_total"`
	Booked      map[activity.Product]int `json:"booked"`
	Done        map[activity.Product]int `json:"done"`
}

// FlatDaily is the month total spread over StandardDaysPerMonth.
type FlatDaily struct {
	Attempts int     `json:"attempts"`
	Booked   float64 `json:"booked"`
	Done     float64 `json:"done"`
	Won      float64 `json:"won"`
}

// RealityStatus grades a target against recent output.
type RealityStatus string

const (
	Realistic  RealityStatus = "realistic"
	Ambitious  RealityStatus = "ambitious"
	Aggressive RealityStatus = "aggressive"
)

type RealityCheck struct {
	GrowthFactor  float64       `json:"growth_factor"`
	Status        RealityStatus `json:"status"`
	AvgMonthlyWon float64       `json:"avg_monthly_won"`
	Message       string        `json:"message"`
}

// Requirement is the output of the funnel sizing engine.
type Requirement struct {
	Targets      Targets      `json:"targets"`
	Modifiers    Modifiers    `json:"modifiers"`
	Required     Required     `json:"required"`
	RatesUsed    Context      `json:"rates_used"`
	Daily        FlatDaily    `json:"daily"`
	RealityCheck RealityCheck `json:"reality_check"`
}

// WonTotal is the sum of product targets.
func (r Requirement) WonTotal() int { return r.Targets.Total() }

// Size inverts the funnel: from won targets back to completed appointments,
// booked appointments and outreach attempts.
func Size(targets Targets, rates Context, logs []activity.DailyLog, today time.Time, mods Modifiers) Requirement {
	req := Required{
		Booked: make(map[activity.Product]int, len(activity.Products)),
		Done:   make(map[activity.Product]int, len(activity.Products)),
	}

	for _, p := range activity.Products {
		target := targets.Won[p]
		if target <= 0 {
			req.Done[p], req.Booked[p] = 0, 0
			continue
		}
		pr := rates.Rates(p)
		win := modified(pr.WinRate.Value, mods.winFactor())
		show := modified(pr.ShowRate.Value, mods.showFactor())

		done := ceilDiv(float64(target), win)
		req.Done[p] = done
		req.Booked[p] = ceilDiv(float64(done), show)
	}
	for _, p := range activity.Products {
		req.DoneTotal += req.Done[p]
		req.BookedTotal += req.Booked[p]
	}

	total := targets.Total()
	if total > 0 {
		req.Attempts = ceil(float64(total) * (rates.AttemptsPerWon.Value / mods.winFactor()))
	}

	return Requirement{
		Targets:   targets,
		Modifiers: mods,
		Required:  req,
		RatesUsed: rates,
		Daily: FlatDaily{
			Attempts: ceil(float64(req.Attempts) / StandardDaysPerMonth),
			Booked:   round1(float64(req.BookedTotal) / StandardDaysPerMonth),
			Done:     round1(float64(req.DoneTotal) / StandardDaysPerMonth),
			Won:      round1(float64(total) / StandardDaysPerMonth),
		},
		RealityCheck: CheckReality(total, logs, today),
	}
}

// CheckReality compares a won target with the trailing 90-day monthly
// average.
func CheckReality(targetWon int, logs []activity.DailyLog, today time.Time) RealityCheck {
	won90 := activity.AggregateWhere(logs, activity.Trailing(today, 90)).WonTotal()
	avg := float64(won90) / 3
	effective := math.Max(avg, 1)
	growth := float64(targetWon) / effective

	rc := RealityCheck{
		GrowthFactor:  growth,
		Status:        Realistic,
		AvgMonthlyWon: avg,
		Message:       "Target in line with your history.",
	}
	delta := math.Round((growth - 1) * 100)
	switch {
	case growth > aggressiveGrowth:
		rc.Status = Aggressive
		rc.Message = fmt.Sprintf("Very high target (+%.0f%% vs average). It needs an extraordinary effort.", delta)
	case growth > ambitiousGrowth:
		rc.Status = Ambitious
		rc.Message = fmt.Sprintf("Ambitious growth (+%.0f%% vs average). Good for pushing.", delta)
	}
	return rc
}

func modified(rate, factor float64) float64 {
	return math.Min(maxModifiedRate, rate*factor)
}

// ceilDiv divides by a rate, treating a non-positive rate as no requirement.
func ceilDiv(n, rate float64) int {
	if rate <= 0 {
		return 0
	}
	return ceil(n / rate)
}

// ceilEpsilon absorbs float noise such as 3/0.3 = 10.000000000000002.
const ceilEpsilon = 1e-9

func ceil(x float64) int {
	return int(math.Ceil(x - ceilEpsilon))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
