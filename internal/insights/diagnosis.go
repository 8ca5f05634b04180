package insights

import (
	"fmt"
	"strings"

	"github.com/sadopc/quotadesk/internal/activity"
)

// Bottleneck is the weakest stage of the realized funnel.
type Bottleneck string

const (
	BottleneckVolume  Bottleneck = "volume"
	BottleneckBooking Bottleneck = "booking"
	BottleneckShowUp  Bottleneck = "show"
	BottleneckClosing Bottleneck = "closing"
	BottleneckNone    Bottleneck = "none"
)

// Rule thresholds, checked in this order.
const (
	MinUsefulContacts = 15
	MinBookingRate    = 0.15
	MinShowRate       = 0.60
	MinWinRate        = 0.20
)

// Role decides whether a diagnosis carries the team reading.
type Role string

const (
	RoleMember Role = "member"
	RoleLeader Role = "leader"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

// ParseRole accepts the four role names, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleMember, RoleLeader, RoleCoach, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// LeadsTeam reports whether r sees team-level narrative.
func (r Role) LeadsTeam() bool {
	return r == RoleAdmin || r == RoleCoach || r == RoleLeader
}

// Metrics is what the diagnosis rules read.
type Metrics struct {
	UsefulContacts int                              `json:"useful_contacts"`
	BookingRate    float64                          `json:"booking_rate"`
	ShowRate       float64                          `json:"show_rate"`
	WinRate        float64                          `json:"win_rate"`
	Products       map[activity.Product]ProductKPIs `json:"products"`
}

// MetricsFromAggregate derives the diagnosis inputs from an aggregate.
// Useful contacts count every call placed.
func MetricsFromAggregate(agg activity.DailyLog) Metrics {
	booked, done := agg.BookedTotal(), agg.DoneTotal()
	return Metrics{
		UsefulContacts: agg.CallsTotal,
		BookingRate:    ratio(booked, agg.Contacts()),
		ShowRate:       ratio(done, booked),
		WinRate:        ratio(agg.WonTotal(), done),
		Products:       ProductBreakdown(agg),
	}
}

// Classify returns the first failing stage; the first rule that fires wins.
func Classify(m Metrics) Bottleneck {
	switch {
	case m.UsefulContacts < MinUsefulContacts:
		return BottleneckVolume
	case m.BookingRate < MinBookingRate:
		return BottleneckBooking
	case m.ShowRate < MinShowRate:
		return BottleneckShowUp
	case m.WinRate < MinWinRate:
		return BottleneckClosing
	}
	return BottleneckNone
}

// Diagnosis is the structured recommendation for one period.
type Diagnosis struct {
	Bottleneck   Bottleneck       `json:"bottleneck"`
	Diagnosis    string           `json:"diagnosis"`
	WhatsWorking string           `json:"whats_working"`
	CriticalArea string           `json:"critical_area"`
	Actions      []string         `json:"actions"`
	Priority     string           `json:"priority"`
	TeamReading  string           `json:"team_reading,omitempty"`
	BestProduct  activity.Product `json:"best_product"`
	WorstProduct activity.Product `json:"worst_product"`
}

// Diagnose classifies m and fills the matching template. teamSize only
// shapes the team reading, which is left empty unless role leads a team.
func Diagnose(m Metrics, role Role, teamSize int) Diagnosis {
	ranked := rankProducts(m.Products)
	best, worst := ranked[0], ranked[len(ranked)-1]

	d := Diagnosis{
		Bottleneck:   Classify(m),
		BestProduct:  best,
		WorstProduct: worst,
	}

	switch d.Bottleneck {
	case BottleneckVolume:
		d.Diagnosis = "The engine is off. You are not talking to enough people."
		d.CriticalArea = fmt.Sprintf("Only %d useful contacts. Below %d a day the numbers cannot work for you.", m.UsefulContacts, MinUsefulContacts)
		d.Actions = []string{
			"Block two 90-minute calling slots a day in your calendar.",
			"Pull the list of old leads and customers and call through it.",
			"Stop preparing and start dialing.",
		}
		d.Priority = "Goal: +50% attempts tomorrow."
	case BottleneckBooking:
		d.Diagnosis = fmt.Sprintf("You are burning contacts. Booking rate (%s) is too low.", pct(m.BookingRate))
		d.CriticalArea = "People answer but do not book. The problem is the script or your tone."
		d.Actions = []string{
			"Record your calls and listen back to three that went wrong.",
			"Role-play the opening script with your sponsor.",
			"Stop explaining on the phone. Sell only the appointment.",
		}
		d.Priority = "Focus: sharpen the opening and objection handling."
	case BottleneckShowUp:
		d.Diagnosis = fmt.Sprintf("Too many no-shows. %s of your appointments fall through.", pct(1-m.ShowRate))
		d.CriticalArea = "The meeting is not sold as valuable. It feels optional to the prospect."
		d.Actions = []string{
			"Send a video or material before the meeting to raise commitment.",
			"Confirm the time with a double-yes question.",
			"Call or send a voice note two hours before to reconfirm.",
		}
		d.Priority = fmt.Sprintf("Priority: lift show rate above %s now.", pct(MinShowRate))
	case BottleneckClosing:
		d.Diagnosis = fmt.Sprintf("You get to the table but do not close. Win rate is low (%s).", pct(m.WinRate))
		d.CriticalArea = fmt.Sprintf("Prospects reach the end and hesitate. Closing or qualification issue on %s.", worst.Name())
		d.Actions = []string{
			"Ask direct closing questions: is there any reason not to start?",
			"Check budget and decision maker before presenting the offer.",
			"Drill the \"I need to think about it\" objection.",
		}
		d.Priority = fmt.Sprintf("Focus: close at least one %s contract within 48h.", worst.Name())
	default:
		d.Diagnosis = "Well-oiled machine. You are in the scaling phase."
		d.CriticalArea = "Nothing critical. Watch that quality holds as volume grows."
		d.Actions = []string{
			"Raise volume by 20% to find the breaking point.",
			"Start training a new team member on your method.",
			"Raise the average ticket with cross-selling.",
		}
		d.Priority = "Goal: hold these numbers for 7 days."
	}

	if b := m.Products[best]; b.Done > 0 {
		d.WhatsWorking = fmt.Sprintf("%s is your driver: win rate %s and show rate %s.", best.Name(), pct(b.WinRate), pct(b.ShowRate))
	} else {
		d.WhatsWorking = "Not enough data yet to name a star product. Keep pushing."
	}

	if role.LeadsTeam() {
		switch {
		case d.Bottleneck == BottleneckNone:
			d.TeamReading = "You are flying. Now duplicate yourself: take your top performer and teach them exactly what you do."
		case teamSize > 0:
			d.TeamReading = "The team needs direction. Check who is lagging on activity."
		default:
			d.TeamReading = "Team still being built. Lead by example."
		}
	}
	return d
}
