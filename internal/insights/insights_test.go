package insights

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/quotadesk/internal/activity"
)

var today = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func day(date string, mut func(*activity.DailyLog)) activity.DailyLog {
	l := activity.NewDailyLog(date)
	if mut != nil {
		mut(&l)
	}
	return l.Normalized()
}

func healthy() Metrics {
	return Metrics{UsefulContacts: 40, BookingRate: 0.3, ShowRate: 0.8, WinRate: 0.4}
}

// ============================================================
// Diagnosis
// ============================================================

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Metrics)
		want Bottleneck
	}{
		{"volume beats booking", func(m *Metrics) { m.UsefulContacts, m.BookingRate = 10, 0.05 }, BottleneckVolume},
		{"booking", func(m *Metrics) { m.BookingRate = 0.1; m.ShowRate = 0.1 }, BottleneckBooking},
		{"show", func(m *Metrics) { m.ShowRate = 0.59; m.WinRate = 0 }, BottleneckShowUp},
		{"closing", func(m *Metrics) { m.WinRate = 0.19 }, BottleneckClosing},
		{"healthy", func(m *Metrics) {}, BottleneckNone},
		{"thresholds are exclusive", func(m *Metrics) {
			m.UsefulContacts, m.BookingRate, m.ShowRate, m.WinRate = 15, 0.15, 0.60, 0.20
		}, BottleneckNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthy()
			tt.mut(&m)
			assert.Equal(t, tt.want, Classify(m))
		})
	}
}

func TestDiagnoseVolumeTemplate(t *testing.T) {
	m := healthy()
	m.UsefulContacts, m.BookingRate = 10, 0.05
	d := Diagnose(m, RoleMember, 0)

	assert.Equal(t, BottleneckVolume, d.Bottleneck)
	assert.Contains(t, d.CriticalArea, "Only 10 useful contacts")
	assert.GreaterOrEqual(t, len(d.Actions), 2)
	assert.LessOrEqual(t, len(d.Actions), 4)
	assert.NotEmpty(t, d.Priority)
	assert.Empty(t, d.TeamReading)
}

func TestDiagnoseClosingNamesWorstProduct(t *testing.T) {
	m := healthy()
	m.WinRate = 0.1
	m.Products = map[activity.Product]ProductKPIs{
		activity.ProductLA:  {Done: 5, Won: 2, WinRate: 0.4, ShowRate: 1},
		activity.ProductFV:  {Done: 5, Won: 0, WinRate: 0, ShowRate: 0.5},
		activity.ProductCAD: {Done: 5, Won: 1, WinRate: 0.2, ShowRate: 0.8},
	}
	d := Diagnose(m, RoleMember, 0)

	assert.Equal(t, activity.ProductLA, d.BestProduct)
	assert.Equal(t, activity.ProductFV, d.WorstProduct)
	assert.Contains(t, d.CriticalArea, "Fotovoltaico")
	assert.Contains(t, d.Priority, "Fotovoltaico")
	assert.Contains(t, d.WhatsWorking, "Luce Amica is your driver: win rate 40% and show rate 100%")
}

func TestDiagnoseWithoutProductData(t *testing.T) {
	d := Diagnose(healthy(), RoleMember, 0)
	assert.Equal(t, activity.ProductLA, d.BestProduct)
	assert.Equal(t, activity.ProductCAD, d.WorstProduct)
	assert.Contains(t, d.WhatsWorking, "Not enough data")
}

func TestDiagnoseTeamReading(t *testing.T) {
	low := healthy()
	low.WinRate = 0

	assert.Empty(t, Diagnose(low, RoleMember, 5).TeamReading)
	assert.Contains(t, Diagnose(low, RoleCoach, 5).TeamReading, "needs direction")
	assert.Contains(t, Diagnose(low, RoleAdmin, 0).TeamReading, "Lead by example")
	assert.Contains(t, Diagnose(healthy(), RoleLeader, 3).TeamReading, "duplicate yourself")
}

func TestMetricsFromAggregate(t *testing.T) {
	agg := day("2025-03-10", func(l *activity.DailyLog) {
		l.CallsAnswered, l.CallsRefused, l.MessagesSent = 8, 12, 2
		l.BookedLA, l.BookedFV = 2, 2
		l.DoneLA, l.DoneCDE = 3, 4
		l.WonLA = 1
	})
	m := MetricsFromAggregate(agg)
	assert.Equal(t, 20, m.UsefulContacts)
	assert.InDelta(t, 0.4, m.BookingRate, 1e-9)
	assert.InDelta(t, 0.75, m.ShowRate, 1e-9)
	assert.InDelta(t, 1.0/3, m.WinRate, 1e-9)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Coach ")
	require.NoError(t, err)
	assert.Equal(t, RoleCoach, r)

	_, err = ParseRole("manager")
	assert.Error(t, err)
}

// ============================================================
// KPI report
// ============================================================

func TestKPIsZeroAggregate(t *testing.T) {
	r := KPIs(activity.DailyLog{})
	assert.Zero(t, r.Rates.Answer)
	assert.Zero(t, r.Rates.Win)
	assert.Zero(t, r.Targets.Calls)
	assert.Zero(t, r.Score.Total)
	assert.Equal(t, ScoreBelowStandard, r.Score.Label)
}

func TestKPIsScore(t *testing.T) {
	agg := day("2025-03-10", func(l *activity.DailyLog) {
		l.CallsAnswered, l.CallsNoAnswer = 30, 30 // 60 calls against a 50 target
		l.MessagesSent = 10
		l.BookedLA, l.BookedFV = 8, 4 // 12 / 40 contacts
		l.DoneLA, l.DoneFV = 6, 4
		l.WonLA, l.WonFV = 3, 2
	})
	r := KPIs(agg)

	assert.InDelta(t, 0.5, r.Rates.Answer, 1e-9)
	assert.InDelta(t, 40.0/60, r.Rates.ContactEfficiency, 1e-9)
	assert.InDelta(t, 0.3, r.Rates.Booking, 1e-9)
	assert.InDelta(t, 10.0/12, r.Rates.Show, 1e-9)
	assert.InDelta(t, 0.5, r.Rates.Win, 1e-9)
	assert.InDelta(t, 0.5, r.Rates.WinByProduct[activity.ProductFV], 1e-9)
	assert.InDelta(t, 1.2, r.Targets.Calls, 1e-9)

	assert.InDelta(t, 40, r.Score.Volume, 1e-9)
	assert.InDelta(t, 9, r.Score.Booking, 1e-9)
	assert.InDelta(t, 15, r.Score.Win, 1e-9)
	assert.InDelta(t, 64, r.Score.Total, 1e-9)
	assert.Equal(t, ScoreGood, r.Score.Label)
	assert.Equal(t, 7, r.Wellbeing.Energy)
}

// ============================================================
// Dashboard and strategic insights
// ============================================================

func TestProductBreakdown(t *testing.T) {
	agg := day("2025-03-10", func(l *activity.DailyLog) {
		l.CallsAnswered = 40
		l.BookedCAD, l.DoneCAD, l.WonCAD = 4, 2, 1
	})
	want := ProductKPIs{Booked: 4, Done: 2, Won: 1, ShowRate: 0.5, WinRate: 0.5, CallsPerWon: 40}
	if diff := cmp.Diff(want, ProductBreakdown(agg)[activity.ProductCAD]); diff != "" {
		t.Errorf("cad breakdown mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ProductKPIs{}, ProductBreakdown(agg)[activity.ProductLA])
}

func TestWonTrend(t *testing.T) {
	tests := []struct {
		last, prev int
		pct        float64
		trend      Trend
	}{
		{0, 0, 0, TrendStable},
		{3, 0, 100, TrendUp},
		{21, 20, 5, TrendStable},
		{12, 10, 20, TrendUp},
		{8, 10, -20, TrendDown},
	}
	for _, tt := range tests {
		pct, trend := wonTrend(tt.last, tt.prev)
		assert.InDelta(t, tt.pct, pct, 1e-9, "%d vs %d", tt.last, tt.prev)
		assert.Equal(t, tt.trend, trend, "%d vs %d", tt.last, tt.prev)
	}
}

func TestDashboardMetricsTrendWindows(t *testing.T) {
	all := []activity.DailyLog{
		day("2025-03-12", func(l *activity.DailyLog) { l.WonLA = 2 }),
		day("2025-03-06", func(l *activity.DailyLog) { l.WonFV = 1 }), // oldest day of the last 7
		day("2025-03-05", func(l *activity.DailyLog) { l.WonFV = 2 }), // newest day of the previous 7
		day("2025-02-26", func(l *activity.DailyLog) { l.WonFV = 9 }), // outside both
	}
	d := DashboardMetrics(all[:1], all, today)
	assert.Equal(t, 3, d.Closing.WonLast7)
	assert.InDelta(t, 50, d.Closing.TrendPct, 1e-9)
	assert.Equal(t, TrendUp, d.Closing.Trend)
	assert.Equal(t, 2, d.Performance.WonTotal)
}

func TestDashboardMetricsFunnel(t *testing.T) {
	period := []activity.DailyLog{
		day("2025-03-10", func(l *activity.DailyLog) {
			l.CallsAnswered, l.CallsRefused, l.MessagesSent = 10, 10, 5
			l.BookedLA, l.DoneLA, l.WonLA = 5, 4, 1
		}),
	}
	f := DashboardMetrics(period, period, today).Funnel
	assert.Equal(t, Funnel{
		Calls: 20, Contacts: 15, Booked: 5, Done: 4, Won: 1,
		ConvContact: 0.75, ConvBooking: 5.0 / 15, ConvShow: 0.8, ConvWin: 0.25,
	}, f)
}

func TestStrategicEmptyPeriod(t *testing.T) {
	si := Strategic(nil, nil, today)
	assert.Equal(t, LabelNoData, si.Bottleneck)
	assert.Equal(t, "N/A", si.BestProduct)
	assert.Equal(t, "N/A", si.WorstProduct)
	require.Len(t, si.Alerts, 1)
	assert.Equal(t, Alert{AlertSuccess, "Stable performance", "OK"}, si.Alerts[0])
	assert.Equal(t, IntensityLow, si.Status.Intensity)
}

func TestStrategicLabels(t *testing.T) {
	period := []activity.DailyLog{
		day("2025-03-11", func(l *activity.DailyLog) {
			l.CallsAnswered, l.CallsNoAnswer = 30, 40
			l.BookedLA, l.BookedFV = 6, 4
			l.DoneLA, l.DoneFV = 6, 2
			l.WonLA, l.WonFV = 3, 1
		}),
	}
	si := Strategic(period, period, today)
	assert.Equal(t, LabelScaling, si.Bottleneck)
	assert.Equal(t, "Luce Amica", si.BestProduct)
	assert.Equal(t, "N/A", si.WorstProduct) // no CAD activity
	assert.Equal(t, IntensityHigh, si.Status.Intensity)
	assert.Equal(t, EffectivenessHigh, si.Status.Effectiveness)
	assert.Equal(t, PerformanceStable, si.Status.Performance)
}

func TestStrategicAlertsCappedAtThree(t *testing.T) {
	baseline := day("2025-03-01", func(l *activity.DailyLog) {
		l.CallsAnswered = 10
		l.BookedCAD, l.DoneCAD, l.WonCAD = 10, 10, 1
	})
	current := day("2025-03-11", func(l *activity.DailyLog) {
		l.CallsAnswered = 100
		l.BookedFV = 3 // no FV appointment took place
		l.DoneLA, l.WonLA = 3, 0
		l.DoneCAD, l.WonCAD = 1, 1
	})
	si := Strategic([]activity.DailyLog{current}, []activity.DailyLog{baseline, current}, today)
	require.Len(t, si.Alerts, maxAlerts)
	assert.Equal(t, AlertDanger, si.Alerts[0].Level)
	assert.Equal(t, AlertSuccess, si.Alerts[1].Level)
	assert.Equal(t, "FV: critical show rate", si.Alerts[2].Message)
}

func TestStrategicBottleneckLabels(t *testing.T) {
	assert.Equal(t, LabelVolume, strategicBottleneck(1, 19, 1, 1, 1))
	assert.Equal(t, LabelBooking, strategicBottleneck(1, 20, 0.09, 1, 1))
	assert.Equal(t, LabelShow, strategicBottleneck(1, 20, 0.1, 0.49, 1))
	assert.Equal(t, LabelClosing, strategicBottleneck(1, 20, 0.1, 0.5, 0.19))
	assert.Equal(t, LabelScaling, strategicBottleneck(1, 20, 0.1, 0.5, 0.2))
}
