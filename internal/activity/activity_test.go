package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(date string, mut func(*DailyLog)) DailyLog {
	l := NewDailyLog(date)
	if mut != nil {
		mut(&l)
	}
	return l
}

func TestAggregateEmptyIsZero(t *testing.T) {
	assert.Equal(t, DailyLog{}, Aggregate(nil))
	assert.Equal(t, DailyLog{}, Aggregate([]DailyLog{}))
}

func TestAggregateRecomputesCallsTotal(t *testing.T) {
	l := day("2025-03-03", func(l *DailyLog) {
		l.CallsTotal = 999
		l.CallsRefused = 2
		l.CallsNoAnswer = 3
		l.CallsAnswered = 5
	})
	agg := Aggregate([]DailyLog{l})
	assert.Equal(t, 10, agg.CallsTotal)
}

func TestAggregateWellbeingRoundedMean(t *testing.T) {
	logs := []DailyLog{
		day("2025-03-03", func(l *DailyLog) { l.Energy, l.Focus, l.Confidence = 7, 4, 10 }),
		day("2025-03-04", func(l *DailyLog) { l.Energy, l.Focus, l.Confidence = 8, 5, 1 }),
	}
	agg := Aggregate(logs)
	assert.Equal(t, 8, agg.Energy) // 7.5 rounds up
	assert.Equal(t, 5, agg.Focus)  // 4.5 rounds up
	assert.Equal(t, 6, agg.Confidence)
}

func TestAggregateAdditivity(t *testing.T) {
	a := []DailyLog{
		day("2025-03-03", func(l *DailyLog) {
			l.CallsAnswered, l.CallsRefused, l.MessagesSent = 10, 4, 6
			l.BookedLA, l.DoneLA, l.WonLA = 3, 2, 1
			l.DoneCDE, l.NewLeads = 1, 2
		}),
		day("2025-03-04", func(l *DailyLog) {
			l.CallsNoAnswer, l.BookedFV, l.DoneFV, l.WonFV = 7, 2, 2, 2
		}),
	}
	b := []DailyLog{
		day("2025-03-05", func(l *DailyLog) {
			l.CallsAnswered, l.BookedCAD, l.DoneCAD, l.WonCAD = 3, 1, 1, 0
		}),
	}

	all := Aggregate(append(append([]DailyLog{}, a...), b...))
	aa, ab := Aggregate(a), Aggregate(b)

	assert.Equal(t, aa.CallsTotal+ab.CallsTotal, all.CallsTotal)
	assert.Equal(t, aa.MessagesSent+ab.MessagesSent, all.MessagesSent)
	assert.Equal(t, aa.BookedTotal()+ab.BookedTotal(), all.BookedTotal())
	assert.Equal(t, aa.DoneTotal()+ab.DoneTotal(), all.DoneTotal())
	assert.Equal(t, aa.WonTotal()+ab.WonTotal(), all.WonTotal())
	assert.Equal(t, aa.DoneCDE+ab.DoneCDE, all.DoneCDE)
	assert.Equal(t, aa.NewLeads+ab.NewLeads, all.NewLeads)
	assert.Equal(t, aa.TargetCalls+ab.TargetCalls, all.TargetCalls)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	logs := []DailyLog{day("2025-03-03", func(l *DailyLog) { l.CallsTotal = 50; l.CallsAnswered = 1 })}
	_ = Aggregate(logs)
	assert.Equal(t, 50, logs[0].CallsTotal)
}

func TestDerivedCounts(t *testing.T) {
	l := day("2025-03-03", func(l *DailyLog) {
		l.CallsAnswered, l.CallsRefused, l.MessagesSent = 4, 6, 3
		l.DoneLA, l.DoneCDE = 2, 5
	}).Normalized()
	assert.Equal(t, 13, l.Attempts())
	assert.Equal(t, 7, l.Contacts())
	assert.Equal(t, 2, l.DoneTotal(), "non-product appointments are not sales")
}

// ============================================================
// Windows
// ============================================================

func TestTrailingIncludesToday(t *testing.T) {
	today := time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)
	keep := Trailing(today, 60)
	assert.True(t, keep(DailyLog{Date: "2025-03-31"}))
	assert.True(t, keep(DailyLog{Date: "2025-01-31"}))  // 59 days back
	assert.False(t, keep(DailyLog{Date: "2025-01-30"})) // 60 days back
}

func TestInMonth(t *testing.T) {
	keep := InMonth("2025-03")
	assert.True(t, keep(DailyLog{Date: "2025-03-01"}))
	assert.False(t, keep(DailyLog{Date: "2025-04-01"}))
}

func TestPeriodRange(t *testing.T) {
	today := time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC) // Thursday

	lo, hi := PeriodToday.Range(today, "", "")
	assert.Equal(t, "2025-03-13", lo)
	assert.Equal(t, "2025-03-13", hi)

	lo, _ = PeriodWeek.Range(today, "", "")
	assert.Equal(t, "2025-03-10", lo)

	lo, _ = PeriodMonth.Range(today, "", "")
	assert.Equal(t, "2025-03-01", lo)

	lo, hi = PeriodCustom.Range(today, "2025-01-01", "2025-01-31")
	assert.Equal(t, "2025-01-01", lo)
	assert.Equal(t, "2025-01-31", hi)
}

func TestStartOfWeekOnSunday(t *testing.T) {
	sunday := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-10", DateKey(StartOfWeek(sunday)))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" Week ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	_, err = ParsePeriod("year")
	assert.Error(t, err)
}

func TestNextMonthKeyRollsYear(t *testing.T) {
	k, err := NextMonthKey("2024-12")
	require.NoError(t, err)
	assert.Equal(t, "2025-01", k)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 31, DaysIn(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoadLocationDefault(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())

	_, err = LoadLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestWorkWeek(t *testing.T) {
	assert.False(t, WorkWeekMonFri.IsWorkday(time.Saturday))
	assert.True(t, WorkWeekMonSat.IsWorkday(time.Saturday))
	assert.False(t, WorkWeekMonSat.IsWorkday(time.Sunday))
	assert.True(t, WorkWeekAll.IsWorkday(time.Sunday))
	assert.False(t, WorkWeek(0).IsWorkday(time.Sunday))
}

func TestPlanTargets(t *testing.T) {
	p := NewMonthlyPlan("2025-03")
	assert.False(t, p.IsTargetSet())
	p.TargetWonFV = 2
	p.TargetWonCAD = 1
	assert.True(t, p.IsTargetSet())
	assert.Equal(t, 3, p.TargetWonTotal())
	assert.Equal(t, 2, p.TargetWon(ProductFV))
}
