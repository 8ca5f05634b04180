package insights

import (
	"sort"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// ProductKPIs is the funnel of a single product line.
type ProductKPIs struct {
	Booked      int     `json:"booked"`
	Done        int     `json:"done"`
	Won         int     `json:"won"`
	ShowRate    float64 `json:"show_rate"`
	WinRate     float64 `json:"win_rate"`
	CallsPerWon float64 `json:"calls_per_won"` // all calls charged to this line's wins
}

// compositeScore ranks product lines: closing weighs double the show-up.
func (k ProductKPIs) compositeScore() float64 {
	return k.WinRate*100 + k.ShowRate*50
}

// ProductBreakdown splits agg by product line.
func ProductBreakdown(agg activity.DailyLog) map[activity.Product]ProductKPIs {
	out := make(map[activity.Product]ProductKPIs, len(activity.Products))
	for _, p := range activity.Products {
		booked, done, won := agg.Booked(p), agg.Done(p), agg.Won(p)
		out[p] = ProductKPIs{
			Booked:      booked,
			Done:        done,
			Won:         won,
			ShowRate:    ratio(done, booked),
			WinRate:     ratio(won, done),
			CallsPerWon: ratio(agg.CallsTotal, won),
		}
	}
	return out
}

// rankProducts orders product lines best first. Ties keep display order.
func rankProducts(products map[activity.Product]ProductKPIs) []activity.Product {
	ranked := make([]activity.Product, len(activity.Products))
	copy(ranked, activity.Products)
	sort.SliceStable(ranked, func(i, j int) bool {
		return products[ranked[i]].compositeScore() > products[ranked[j]].compositeScore()
	})
	return ranked
}

// Trend is the direction of the weekly won count.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

const trendThresholdPct = 10

type Outreach struct {
	TotalCalls        int     `json:"total_calls"`
	CallsAnswered     int     `json:"calls_answered"`
	CallsNoAnswer     int     `json:"calls_no_answer"`
	CallsRefused      int     `json:"calls_refused"`
	ContactEfficiency float64 `json:"contact_efficiency"`
	BookedTotal       int     `json:"booked_total"`
	BookingRate       float64 `json:"booking_rate"`
	CallsPerBooked    float64 `json:"calls_per_booked"`
	ResponseRate      float64 `json:"response_rate"`
}

type Performance struct {
	DoneTotal   int     `json:"done_total"`
	WonTotal    int     `json:"won_total"`
	CallsPerWon float64 `json:"calls_per_won"`
	NewLeads    int     `json:"new_leads"`
}

// Closing carries the closing rates and the last-7-days won trend.
type Closing struct {
	WinRate  float64 `json:"win_rate"`
	ShowRate float64 `json:"show_rate"`
	WonLast7 int     `json:"won_last7_count"`
	Trend    Trend   `json:"trend_won_direction"`
	TrendPct float64 `json:"trend_pct"`
}

type Funnel struct {
	Calls       int     `json:"calls"`
	Contacts    int     `json:"contacts"`
	Booked      int     `json:"booked"`
	Done        int     `json:"done"`
	Won         int     `json:"won"`
	ConvContact float64 `json:"conv_contact"`
	ConvBooking float64 `json:"conv_booking"`
	ConvShow    float64 `json:"conv_show"`
	ConvWin     float64 `json:"conv_win"`
}

// Dashboard bundles every view of a period.
type Dashboard struct {
	Insights    StrategicInsights                `json:"insights"`
	Products    map[activity.Product]ProductKPIs `json:"products"`
	Outreach    Outreach                         `json:"outreach"`
	Performance Performance                      `json:"performance"`
	Closing     Closing                          `json:"closing"`
	Funnel      Funnel                           `json:"funnel"`
}

// DashboardMetrics reads period against the full history. The won trend
// always compares the last 7 days with the 7 before, whatever the period.
func DashboardMetrics(period, all []activity.DailyLog, today time.Time) Dashboard {
	agg := activity.Aggregate(period)
	booked, done, won := agg.BookedTotal(), agg.DoneTotal(), agg.WonTotal()
	contacts := agg.Contacts()

	t := activity.DateKey(today)
	last7 := activity.AggregateWhere(all, activity.Between(activity.DateKey(today.AddDate(0, 0, -6)), t)).WonTotal()
	prev7 := activity.AggregateWhere(all, activity.Between(
		activity.DateKey(today.AddDate(0, 0, -13)),
		activity.DateKey(today.AddDate(0, 0, -7)),
	)).WonTotal()
	pct, trend := wonTrend(last7, prev7)

	return Dashboard{
		Insights: Strategic(period, all, today),
		Products: ProductBreakdown(agg),
		Outreach: Outreach{
			TotalCalls:        agg.CallsTotal,
			CallsAnswered:     agg.CallsAnswered,
			CallsNoAnswer:     agg.CallsNoAnswer,
			CallsRefused:      agg.CallsRefused,
			ContactEfficiency: ratio(contacts, agg.CallsTotal),
			BookedTotal:       booked,
			BookingRate:       ratio(booked, contacts),
			CallsPerBooked:    ratio(agg.CallsTotal, booked),
			ResponseRate:      ratio(agg.CallsAnswered, agg.CallsTotal),
		},
		Performance: Performance{
			DoneTotal:   done,
			WonTotal:    won,
			CallsPerWon: ratio(agg.CallsTotal, won),
			NewLeads:    agg.NewLeads,
		},
		Closing: Closing{
			WinRate:  ratio(won, done),
			ShowRate: ratio(done, booked),
			WonLast7: last7,
			Trend:    trend,
			TrendPct: pct,
		},
		Funnel: Funnel{
			Calls:       agg.CallsTotal,
			Contacts:    contacts,
			Booked:      booked,
			Done:        done,
			Won:         won,
			ConvContact: ratio(contacts, agg.CallsTotal),
			ConvBooking: ratio(booked, contacts),
			ConvShow:    ratio(done, booked),
			ConvWin:     ratio(won, done),
		},
	}
}

// wonTrend returns the percentage change and its direction. Growth from
// zero counts as +100%.
func wonTrend(last, prev int) (float64, Trend) {
	var pct float64
	switch {
	case prev > 0:
		pct = float64(last-prev) / float64(prev) * 100
	case last > 0:
		pct = 100
	}
	switch {
	case pct > trendThresholdPct:
		return pct, TrendUp
	case pct < -trendThresholdPct:
		return pct, TrendDown
	}
	return pct, TrendStable
}
