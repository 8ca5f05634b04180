package planning

import (
	"fmt"
	"math"
	"time"
)

// Workday is the civil-time window used to measure day progress.
type Workday struct {
	StartHour int
	EndHour   int
}

// DefaultWorkday runs from 09:00 to 19:00.
var DefaultWorkday = Workday{StartHour: 9, EndHour: 19}

func (w Workday) hours() float64 {
	if w.EndHour <= w.StartHour {
		return float64(DefaultWorkday.EndHour - DefaultWorkday.StartHour)
	}
	return float64(w.EndHour - w.StartHour)
}

// PaceStatus classifies how the day is going against the won quota.
type PaceStatus string

const (
	PaceTargetReached PaceStatus = "Target Reached"
	PaceNotStarted    PaceStatus = "Day Not Started"
	PaceAhead         PaceStatus = "Ahead"
	PaceOnTrack       PaceStatus = "On Track"
	PaceBehind        PaceStatus = "Behind"
)

const (
	minDayProgress  = 0.05
	notStartedHours = 0.5
)

// Pace is the linear end-of-day projection of today's won count.
type Pace struct {
	Status       PaceStatus `json:"status"`
	HoursPassed  float64    `json:"hours_passed"`
	DayProgress  float64    `json:"day_progress"`
	ProjectedWon int        `json:"projected_won"`
	ActualWon    int        `json:"actual_won"`
	DailyQuota   int        `json:"daily_quota"`
	Urgent       bool       `json:"urgent"`
	Message      string     `json:"message"`
}

// Project extrapolates actualWon to the end of the workday at now's
// wall-clock time. now must already be in the civil timezone.
func Project(now time.Time, actualWon, dailyQuota int, wd Workday) Pace {
	total := wd.hours()
	passed := clamp(float64(now.Hour())+float64(now.Minute())/60-float64(wd.StartHour), 0, total)
	progress := clamp(passed/total, minDayProgress, 1)
	projected := int(math.Floor(float64(actualWon) / progress))

	p := Pace{
		HoursPassed:  passed,
		DayProgress:  progress,
		ProjectedWon: projected,
		ActualWon:    actualWon,
		DailyQuota:   dailyQuota,
	}

	switch {
	case actualWon >= dailyQuota && dailyQuota > 0:
		p.Status = PaceTargetReached
		p.Message = "Day complete! Everything you close from here is pure gain."
	case passed < notStartedHours:
		p.Status = PaceNotStarted
		p.Message = "The day has just started. Give it everything!"
	case projected > dailyQuota:
		p.Status = PaceAhead
		p.Message = fmt.Sprintf("Great pace! At this speed you will close %d contracts (target: %d).", projected, dailyQuota)
	case projected == dailyQuota && actualWon > 0:
		p.Status = PaceOnTrack
		p.Message = "You are on track to hit the exact target. Don't slow down."
	default:
		p.Status = PaceBehind
		if projected == 0 && dailyQuota > 0 {
			p.Urgent = true
			p.Message = fmt.Sprintf("Slow pace. You still need %d contracts to save the day.", dailyQuota-actualWon)
		} else {
			p.Message = fmt.Sprintf("Heads up: you are projecting %d contracts. Unless you accelerate you will miss %d.", projected, dailyQuota-projected)
		}
	}
	return p
}
