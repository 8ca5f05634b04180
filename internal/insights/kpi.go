// Package insights reads the realized funnel of a period: KPI report,
// product breakdown, dashboard metrics, strategic insights and the
// bottleneck diagnosis.
package insights

import (
	"math"

	"github.com/sadopc/quotadesk/internal/activity"
)

// ScoreLabel grades a KPI score.
type ScoreLabel string

const (
	ScoreExcellent     ScoreLabel = "Excellent"
	ScoreGood          ScoreLabel = "Good"
	ScoreBelowStandard ScoreLabel = "Below Standard"
)

// Score weights, out of 100.
const (
	volumeWeight  = 40
	bookingWeight = 30
	winWeight     = 30

	excellentScore = 80
	goodScore      = 60
)

type Rates struct {
	Answer            float64                      `json:"answer_rate"`
	Refused           float64                      `json:"refused_rate"`
	NoAnswer          float64                      `json:"no_answer_rate"`
	ContactEfficiency float64                      `json:"contact_efficiency"`
	MessagesPerCall   float64                      `json:"messages_per_call"`
	Booking           float64                      `json:"booking_rate"`
	Show              float64                      `json:"show_rate"`
	Win               float64                      `json:"win_rate"`
	WinByProduct      map[activity.Product]float64 `json:"win_rate_by_product"`
}

// Completion compares totals with the summed snapshot targets.
type Completion struct {
	Calls  float64 `json:"calls_completion"`
	Booked float64 `json:"booked_completion"`
	Won    float64 `json:"won_completion"`
}

type Wellbeing struct {
	Energy     int `json:"avg_energy"`
	Focus      int `json:"avg_focus"`
	Confidence int `json:"avg_confidence"`
}

type Score struct {
	Volume  float64    `json:"volume_score"`
	Booking float64    `json:"booking_score"`
	Win     float64    `json:"win_score"`
	Total   float64    `json:"total_score"`
	Label   ScoreLabel `json:"label"`
}

// KPIReport is the rate sheet of one aggregate.
type KPIReport struct {
	Totals    activity.DailyLog `json:"-"`
	Rates     Rates             `json:"rates"`
	Targets   Completion        `json:"targets"`
	Wellbeing Wellbeing         `json:"wellbeing"`
	Score     Score             `json:"score"`
}

// KPIs computes the report of agg. Every ratio with a zero denominator is 0.
func KPIs(agg activity.DailyLog) KPIReport {
	booked, done, won := agg.BookedTotal(), agg.DoneTotal(), agg.WonTotal()

	rates := Rates{
		Answer:            ratio(agg.CallsAnswered, agg.CallsTotal),
		Refused:           ratio(agg.CallsRefused, agg.CallsTotal),
		NoAnswer:          ratio(agg.CallsNoAnswer, agg.CallsTotal),
		ContactEfficiency: ratio(agg.Contacts(), agg.CallsTotal),
		MessagesPerCall:   ratio(agg.MessagesSent, agg.CallsTotal),
		Booking:           ratio(booked, agg.Contacts()),
		Show:              ratio(done, booked),
		Win:               ratio(won, done),
		WinByProduct:      make(map[activity.Product]float64, len(activity.Products)),
	}
	for _, p := range activity.Products {
		rates.WinByProduct[p] = ratio(agg.Won(p), agg.Done(p))
	}

	completion := Completion{
		Calls:  ratio(agg.CallsTotal, agg.TargetCalls),
		Booked: ratio(booked, agg.TargetBooked),
		Won:    ratio(won, agg.TargetWon),
	}

	score := Score{
		Volume:  math.Min(completion.Calls, 1) * volumeWeight,
		Booking: rates.Booking * bookingWeight,
		Win:     rates.Win * winWeight,
	}
	score.Total = score.Volume + score.Booking + score.Win
	switch {
	case score.Total >= excellentScore:
		score.Label = ScoreExcellent
	case score.Total >= goodScore:
		score.Label = ScoreGood
	default:
		score.Label = ScoreBelowStandard
	}

	return KPIReport{
		Totals:  agg,
		Rates:   rates,
		Targets: completion,
		Wellbeing: Wellbeing{
			Energy:     agg.Energy,
			Focus:      agg.Focus,
			Confidence: agg.Confidence,
		},
		Score: score,
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
