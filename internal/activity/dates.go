package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	// DefaultTimezone anchors "today" for workday and workday-window math.
	DefaultTimezone = "Europe/Rome"
)

// LoadLocation resolves a timezone name, defaulting to DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// DateKey formats t as YYYY-MM-DD in t's own location.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// MonthKey formats t as YYYY-MM in t's own location.
func MonthKey(t time.Time) string { return t.Format(MonthLayout) }

// ParseDate validates a YYYY-MM-DD key.
func ParseDate(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", key, err)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM key into the first day of that month in loc.
func ParseMonth(key string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", key, err)
	}
	return t, nil
}

// NextMonthKey returns the key of the month following key.
func NextMonthKey(key string) (string, error) {
	t, err := ParseMonth(key, time.UTC)
	if err != nil {
		return "", err
	}
	return MonthKey(t.AddDate(0, 1, 0)), nil
}

// InMonth matches logs whose date starts with the month key.
func InMonth(key string) func(DailyLog) bool {
	return func(l DailyLog) bool { return strings.HasPrefix(l.Date, key) }
}

// OnDate matches logs for exactly one date key.
func OnDate(key string) func(DailyLog) bool {
	return func(l DailyLog) bool { return l.Date == key }
}

// Trailing matches logs in the last days calendar days ending today, today
// included. Dates are compared as YYYY-MM-DD strings.
func Trailing(today time.Time, days int) func(DailyLog) bool {
	cutoff := DateKey(today.AddDate(0, 0, -(days - 1)))
	return func(l DailyLog) bool { return l.Date >= cutoff }
}

// Between matches logs with from <= date <= to.
func Between(from, to string) func(DailyLog) bool {
	return func(l DailyLog) bool { return l.Date >= from && l.Date <= to }
}

// Period selects a reporting window relative to today.
type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodCustom:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// StartOfWeek returns the Monday of today's week.
func StartOfWeek(today time.Time) time.Time {
	wd := int(today.Weekday())
	if wd == 0 {
		wd = 7
	}
	return today.AddDate(0, 0, 1-wd)
}

// Range returns the inclusive date keys a period covers. Custom periods
// use from/to as given; an incomplete custom range matches everything.
func (p Period) Range(today time.Time, from, to string) (string, string) {
	t := DateKey(today)
	switch p {
	case PeriodToday:
		return t, t
	case PeriodWeek:
		return DateKey(StartOfWeek(today)), t
	case PeriodMonth:
		return MonthKey(today) + "-01", t
	case PeriodCustom:
		if from == "" || to == "" {
			return "", "9999-12-31"
		}
		return from, to
	}
	return "", "9999-12-31"
}

// FilterPeriod returns logs inside the period.
func FilterPeriod(logs []DailyLog, p Period, today time.Time, from, to string) []DailyLog {
	lo, hi := p.Range(today, from, to)
	return Filter(logs, Between(lo, hi))
}

// DaysIn returns the number of calendar days in the month of t.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
