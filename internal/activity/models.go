// Package activity holds the daily activity log, the monthly plan and the
// reductions every other package builds on.
package activity

import "time"

// Product is one of the offering categories tracked independently through
// the funnel.
type Product string

const (
	ProductLA  Product = "la"
	ProductFV  Product = "fv"
	ProductCAD Product = "cad"
)

// Products lists the product lines in display order.
var Products = []Product{ProductLA, ProductFV, ProductCAD}

var productNames = map[Product]string{
	ProductLA:  "Luce Amica",
	ProductFV:  "Fotovoltaico",
	ProductCAD: "Adesione",
}

func (p Product) Name() string {
	if n, ok := productNames[p]; ok {
		return n
	}
	return string(p)
}

// Snapshot target and wellbeing defaults for a freshly created day.
const (
	DefaultTargetCalls  = 50
	DefaultTargetBooked = 2
	DefaultTargetWon    = 1
	DefaultWellbeing    = 7
)

// DailyLog is one row per (user, calendar date).
type DailyLog struct {
	ID     int64
	UserID string
	Date   string // YYYY-MM-DD

	CallsTotal    int // always CallsRefused + CallsNoAnswer + CallsAnswered
	CallsRefused  int
	CallsNoAnswer int
	CallsAnswered int
	MessagesSent  int

	BookedLA  int
	BookedFV  int
	BookedCAD int

	NewLeads int

	DoneLA  int
	DoneFV  int
	DoneCAD int
	DoneCDE int // non-product appointments, excluded from sales totals

	WonLA  int
	WonFV  int
	WonCAD int

	TargetCalls  int
	TargetBooked int
	TargetWon    int

	Energy     int
	Focus      int
	Confidence int
	MoodNote   string

	UpdatedAt time.Time
}

// NewDailyLog returns an empty day carrying the default snapshot targets.
func NewDailyLog(date string) DailyLog {
	return DailyLog{
		Date:         date,
		TargetCalls:  DefaultTargetCalls,
		TargetBooked: DefaultTargetBooked,
		TargetWon:    DefaultTargetWon,
		Energy:       DefaultWellbeing,
		Focus:        DefaultWellbeing,
		Confidence:   DefaultWellbeing,
	}
}

// Normalized returns a copy with CallsTotal recomputed from its parts.
func (l DailyLog) Normalized() DailyLog {
	l.CallsTotal = l.CallsRefused + l.CallsNoAnswer + l.CallsAnswered
	return l
}

func (l DailyLog) Booked(p Product) int {
	switch p {
	case ProductLA:
		return l.BookedLA
	case ProductFV:
		return l.BookedFV
	case ProductCAD:
		return l.BookedCAD
	}
	return 0
}

func (l DailyLog) Done(p Product) int {
	switch p {
	case ProductLA:
		return l.DoneLA
	case ProductFV:
		return l.DoneFV
	case ProductCAD:
		return l.DoneCAD
	}
	return 0
}

func (l DailyLog) Won(p Product) int {
	switch p {
	case ProductLA:
		return l.WonLA
	case ProductFV:
		return l.WonFV
	case ProductCAD:
		return l.WonCAD
	}
	return 0
}

func (l DailyLog) BookedTotal() int { return l.BookedLA + l.BookedFV + l.BookedCAD }

// DoneTotal counts completed sales appointments only.
func (l DailyLog) DoneTotal() int { return l.DoneLA + l.DoneFV + l.DoneCAD }

func (l DailyLog) WonTotal() int { return l.WonLA + l.WonFV + l.WonCAD }

// Attempts is every outreach action: calls plus messages.
func (l DailyLog) Attempts() int { return l.CallsTotal + l.MessagesSent }

// Contacts is every attempt that reached a live person.
func (l DailyLog) Contacts() int { return l.CallsAnswered + l.MessagesSent }

// WorkWeek is the number of working days per week a plan assumes.
type WorkWeek int

const (
	WorkWeekMonFri WorkWeek = 5
	WorkWeekMonSat WorkWeek = 6
	WorkWeekAll    WorkWeek = 7
)

// IsWorkday reports whether the weekday counts as a working day.
// Anything other than 6 or 7 falls back to Monday through Friday.
func (w WorkWeek) IsWorkday(d time.Weekday) bool {
	switch w {
	case WorkWeekAll:
		return true
	case WorkWeekMonSat:
		return d != time.Sunday
	default:
		return d != time.Sunday && d != time.Saturday
	}
}

// MonthlyPlan is one row per (user, month).
type MonthlyPlan struct {
	ID              int64
	UserID          string
	Month           string // YYYY-MM
	WorkdaysPerWeek WorkWeek
	TargetWonLA     int
	TargetWonFV     int
	TargetWonCAD    int
	TargetNewLeads  int
	UpdatedAt       time.Time
}

// NewMonthlyPlan returns an unset plan for the month.
func NewMonthlyPlan(month string) MonthlyPlan {
	return MonthlyPlan{Month: month, WorkdaysPerWeek: WorkWeekMonFri}
}

func (p MonthlyPlan) TargetWon(prod Product) int {
	switch prod {
	case ProductLA:
		return p.TargetWonLA
	case ProductFV:
		return p.TargetWonFV
	case ProductCAD:
		return p.TargetWonCAD
	}
	return 0
}

func (p MonthlyPlan) TargetWonTotal() int {
	return p.TargetWonLA + p.TargetWonFV + p.TargetWonCAD
}

// IsTargetSet reports whether any won target has been entered.
func (p MonthlyPlan) IsTargetSet() bool { return p.TargetWonTotal() > 0 }
