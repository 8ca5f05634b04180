package insights

import (
	"fmt"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// Strategic thresholds are looser than the diagnosis ones: they label a
// period at a glance rather than pick a coaching plan.
const (
	strategicMinContacts  = 20
	strategicMinBooking   = 0.10
	strategicMinShow      = 0.50
	strategicMinWin       = 0.20
	baselineDays          = 31 // today and the 30 days before
	maxAlerts             = 3
	highIntensityCalls    = 60
	lowIntensityCalls     = 30
	highEffectivenessRate = 0.25
)

const (
	LabelNoData   = "Not enough data"
	LabelVolume   = "Low attempt volume"
	LabelBooking  = "Script / booking quality"
	LabelShow     = "No-shows / confirmations"
	LabelClosing  = "Closing / negotiation"
	LabelScaling  = "Scaling (increase volume)"
	notApplicable = "N/A"
)

type AlertLevel string

const (
	AlertDanger  AlertLevel = "danger"
	AlertWarning AlertLevel = "warning"
	AlertSuccess AlertLevel = "success"
)

type Alert struct {
	Level   AlertLevel `json:"type"`
	Message string     `json:"message"`
	Metric  string     `json:"metric"`
}

type (
	PerformanceTrend string
	Intensity        string
	Effectiveness    string
)

const (
	PerformanceGrowth  PerformanceTrend = "Growth"
	PerformanceStable  PerformanceTrend = "Stable"
	PerformanceDecline PerformanceTrend = "Decline"

	IntensityHigh   Intensity = "High"
	IntensityMedium Intensity = "Medium"
	IntensityLow    Intensity = "Low"

	EffectivenessHigh Effectiveness = "High"
	EffectivenessLow  Effectiveness = "Low"
)

type GeneralStatus struct {
	Performance   PerformanceTrend `json:"performance"`
	Intensity     Intensity        `json:"intensity"`
	Effectiveness Effectiveness    `json:"effectiveness"`
}

// StrategicInsights summarizes a period against the trailing 30-day
// baseline.
type StrategicInsights struct {
	Bottleneck   string        `json:"bottleneck"`
	BestProduct  string        `json:"best_product"`
	WorstProduct string        `json:"worst_product"`
	Alerts       []Alert       `json:"alerts"`
	Status       GeneralStatus `json:"general_status"`
}

// Strategic labels the period's weakest stage, its best and worst product
// lines, up to three alerts and the general status.
func Strategic(period, all []activity.DailyLog, today time.Time) StrategicInsights {
	agg := activity.Aggregate(period)
	products := ProductBreakdown(agg)

	baseline := activity.Filter(all, activity.Trailing(today, baselineDays))
	base := activity.Aggregate(baseline)

	contacts := agg.Contacts()
	booked, done, won := agg.BookedTotal(), agg.DoneTotal(), agg.WonTotal()
	bookingRate := ratio(booked, contacts)
	showRate := ratio(done, booked)
	winRate := ratio(won, done)

	si := StrategicInsights{
		Bottleneck:   strategicBottleneck(len(period), contacts, bookingRate, showRate, winRate),
		BestProduct:  notApplicable,
		WorstProduct: notApplicable,
	}

	ranked := rankProducts(products)
	if best := products[ranked[0]]; best.compositeScore() > 0 {
		si.BestProduct = ranked[0].Name()
	}
	if last := ranked[len(ranked)-1]; products[last].compositeScore() > 0 {
		si.WorstProduct = last.Name()
	}

	baseBooking := ratio(base.BookedTotal(), base.Contacts())
	baseWin := ratio(base.WonTotal(), base.DoneTotal())

	var alerts []Alert
	if booked > 0 && bookingRate < baseBooking*0.8 {
		alerts = append(alerts, Alert{AlertDanger, "Booking rate dropping sharply", pct(bookingRate)})
	}
	if won > 0 && winRate > baseWin*1.1 {
		alerts = append(alerts, Alert{AlertSuccess, "Win rate above average", "+" + pct(winRate-baseWin)})
	}
	if fv := products[activity.ProductFV]; fv.Booked > 2 && fv.ShowRate < 0.5 {
		alerts = append(alerts, Alert{AlertWarning, "FV: critical show rate", pct(fv.ShowRate)})
	}
	if la := products[activity.ProductLA]; la.Done > 2 && la.WinRate < 0.2 {
		alerts = append(alerts, Alert{AlertWarning, "LA: weak closing", pct(la.WinRate)})
	}
	if len(alerts) == 0 {
		alerts = append(alerts, Alert{AlertSuccess, "Stable performance", "OK"})
	}
	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}
	si.Alerts = alerts

	wonDaily := ratio(won, max(1, len(period)))
	baseWonDaily := ratio(base.WonTotal(), max(1, len(baseline)))
	si.Status.Performance = PerformanceStable
	switch {
	case wonDaily > baseWonDaily*1.1:
		si.Status.Performance = PerformanceGrowth
	case wonDaily < baseWonDaily*0.9:
		si.Status.Performance = PerformanceDecline
	}

	avgCalls := ratio(agg.CallsTotal, max(1, len(period)))
	si.Status.Intensity = IntensityMedium
	switch {
	case avgCalls > highIntensityCalls:
		si.Status.Intensity = IntensityHigh
	case avgCalls < lowIntensityCalls:
		si.Status.Intensity = IntensityLow
	}

	si.Status.Effectiveness = EffectivenessLow
	if winRate > highEffectivenessRate {
		si.Status.Effectiveness = EffectivenessHigh
	}
	return si
}

func strategicBottleneck(days, contacts int, booking, show, win float64) string {
	switch {
	case days == 0:
		return LabelNoData
	case contacts < strategicMinContacts:
		return LabelVolume
	case booking < strategicMinBooking:
		return LabelBooking
	case show < strategicMinShow:
		return LabelShow
	case win < strategicMinWin:
		return LabelClosing
	}
	return LabelScaling
}

func pct(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}
