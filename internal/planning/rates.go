// Package planning turns the activity history and a monthly plan into
// conversion rates, funnel requirements and daily quotas. Every function is
// a pure transformation of its arguments.
package planning

import (
	"math"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// RateSource names the history window a rate was resolved from.
type RateSource string

const (
	SourceMTD      RateSource = "MTD"
	Source60d      RateSource = "60d"
	Source90d      RateSource = "90d"
	SourceAllTime  RateSource = "All Time"
	SourceStandard RateSource = "Standard"
)

// Fallback rates used when no window has enough data.
const (
	DefaultShowRate       = 0.70
	DefaultAttemptsPerWon = 80.0

	MaxWinRate  = 1.0
	MaxShowRate = 1.5 // completed may exceed booked when appointments carry over
)

var defaultWinRates = map[activity.Product]float64{
	activity.ProductLA:  0.30,
	activity.ProductFV:  0.25,
	activity.ProductCAD: 0.35,
}

// DefaultWinRate returns the standard win rate of a product line.
func DefaultWinRate(p activity.Product) float64 { return defaultWinRates[p] }

// RateDetail is a resolved rate tagged with its provenance.
type RateDetail struct {
	Value  float64    `json:"value"`
	Source RateSource `json:"source"`
}

type ProductRates struct {
	WinRate  RateDetail `json:"win_rate"`
	ShowRate RateDetail `json:"show_rate"`
}

// Windows holds the aggregated history each rate was judged against.
type Windows struct {
	MTD     activity.DailyLog `json:"mtd"`
	Last60  activity.DailyLog `json:"last_60d"`
	Last90  activity.DailyLog `json:"last_90d"`
	AllTime activity.DailyLog `json:"all_time"`
}

// Context is the full set of resolved rates.
type Context struct {
	Products       map[activity.Product]ProductRates `json:"products"`
	AttemptsPerWon RateDetail                        `json:"attempts_per_won"`
	Windows        Windows                           `json:"windows"`
}

// Rates returns the resolved rates of one product line.
func (c Context) Rates(p activity.Product) ProductRates { return c.Products[p] }

// window is one candidate aggregate in resolution order.
type window struct {
	source RateSource
	agg    activity.DailyLog
}

func (w Windows) ordered() []window {
	return []window{
		{SourceMTD, w.MTD},
		{Source60d, w.Last60},
		{Source90d, w.Last90},
		{SourceAllTime, w.AllTime},
	}
}

// BuildWindows aggregates history into the four overlapping windows,
// using today's civil date for month-to-date and the trailing windows.
func BuildWindows(logs []activity.DailyLog, today time.Time) Windows {
	return Windows{
		MTD:     activity.AggregateWhere(logs, activity.InMonth(activity.MonthKey(today))),
		Last60:  activity.AggregateWhere(logs, activity.Trailing(today, 60)),
		Last90:  activity.AggregateWhere(logs, activity.Trailing(today, 90)),
		AllTime: activity.Aggregate(logs),
	}
}

// rule decides whether a window is reliable enough and yields the ratio.
type rule struct {
	qualifies map[RateSource]func(num, den int) bool
	ratio     func(agg activity.DailyLog) (num, den int)
}

func (r rule) resolve(windows []window, fallback, ceiling float64) RateDetail {
	for _, w := range windows {
		num, den := r.ratio(w.agg)
		ok := r.qualifies[w.source]
		if den == 0 || ok == nil || !ok(num, den) {
			continue
		}
		return RateDetail{Value: clamp(float64(num)/float64(den), 0, ceiling), Source: w.source}
	}
	return RateDetail{Value: clamp(fallback, 0, ceiling), Source: SourceStandard}
}

func showRule(p activity.Product) rule {
	fresh := func(done, booked int) bool { return booked > 0 && done > 0 }
	return rule{
		qualifies: map[RateSource]func(int, int) bool{
			SourceMTD: fresh, Source60d: fresh, Source90d: fresh, SourceAllTime: fresh,
		},
		ratio: func(agg activity.DailyLog) (int, int) { return agg.Done(p), agg.Booked(p) },
	}
}

func winRule(p activity.Product) rule {
	return rule{
		qualifies: map[RateSource]func(int, int) bool{
			SourceMTD:     func(won, _ int) bool { return won >= 1 },
			Source60d:     func(won, done int) bool { return won >= 2 || done >= 5 },
			Source90d:     func(won, done int) bool { return won >= 2 || done >= 8 },
			SourceAllTime: func(_, done int) bool { return done >= 5 },
		},
		ratio: func(agg activity.DailyLog) (int, int) { return agg.Won(p), agg.Done(p) },
	}
}

var attemptsRule = rule{
	qualifies: map[RateSource]func(int, int) bool{
		SourceMTD:     func(_, won int) bool { return won >= 1 },
		Source60d:     func(_, won int) bool { return won >= 3 },
		Source90d:     func(_, won int) bool { return won >= 5 },
		SourceAllTime: func(_, won int) bool { return won >= 5 },
	},
	ratio: func(agg activity.DailyLog) (int, int) { return agg.Attempts(), agg.WonTotal() },
}

// ResolveRates picks, for every product line and for attempts-per-win, the
// most recent history window that passes its sample-size rule.
func ResolveRates(logs []activity.DailyLog, today time.Time) Context {
	return ResolveWindows(BuildWindows(logs, today))
}

// ResolveWindows is ResolveRates over pre-aggregated windows.
func ResolveWindows(w Windows) Context {
	ordered := w.ordered()
	ctx := Context{
		Products: make(map[activity.Product]ProductRates, len(activity.Products)),
		Windows:  w,
	}
	for _, p := range activity.Products {
		ctx.Products[p] = ProductRates{
			WinRate:  winRule(p).resolve(ordered, DefaultWinRate(p), MaxWinRate),
			ShowRate: showRule(p).resolve(ordered, DefaultShowRate, MaxShowRate),
		}
	}
	ctx.AttemptsPerWon = attemptsRule.resolve(ordered, DefaultAttemptsPerWon, math.Inf(1))
	return ctx
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
