package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Logs       []jsonLog  `json:"logs"`
	Plans      []jsonPlan `json:"plans,omitempty"`
}

type jsonLog struct {
	Date          string `json:"date"`
	CallsTotal    int    `json:"calls_total"`
	CallsRefused  int    `json:"calls_refused"`
	CallsNoAnswer int    `json:"calls_no_answer"`
	CallsAnswered int    `json:"calls_answered"`
	MessagesSent  int    `json:"messages_sent"`
	BookedLA      int    `json:"booked_la"`
	BookedFV      int    `json:"booked_fv"`
	BookedCAD     int    `json:"booked_cad"`
	NewLeads      int    `json:"new_leads"`
	DoneLA        int    `json:"done_la"`
	DoneFV        int    `json:"done_fv"`
	DoneCAD       int    `json:"done_cad"`
	DoneCDE       int    `json:"done_cde"`
	WonLA         int    `json:"won_la"`
	WonFV         int    `json:"won_fv"`
	WonCAD        int    `json:"won_cad"`
	TargetCalls   int    `json:"target_calls"`
	TargetBooked  int    `json:"target_booked"`
	TargetWon     int    `json:"target_won"`
	Energy        int    `json:"energy_level"`
	Focus         int    `json:"focus_level"`
	Confidence    int    `json:"confidence_level"`
	MoodNote      string `json:"mood_note,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type jsonPlan struct {
	Month           string `json:"month"`
	WorkdaysPerWeek int    `json:"workdays_per_week"`
	TargetWonLA     int    `json:"target_won_la"`
	TargetWonFV     int    `json:"target_won_fv"`
	TargetWonCAD    int    `json:"target_won_cad"`
	TargetNewLeads  int    `json:"target_new_leads"`
}

// ToJSON writes logs and plans to a new file at path.
func ToJSON(logs []activity.DailyLog, plans []activity.MonthlyPlan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, logs, plans)
}

// WriteJSON writes an indented document with every log and plan.
func WriteJSON(w io.Writer, logs []activity.DailyLog, plans []activity.MonthlyPlan) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(logs),
	}

	for _, l := range logs {
		l = l.Normalized()
		jl := jsonLog{
			Date:          l.Date,
			CallsTotal:    l.CallsTotal,
			CallsRefused:  l.CallsRefused,
			CallsNoAnswer: l.CallsNoAnswer,
			CallsAnswered: l.CallsAnswered,
			MessagesSent:  l.MessagesSent,
			BookedLA:      l.BookedLA,
			BookedFV:      l.BookedFV,
			BookedCAD:     l.BookedCAD,
			NewLeads:      l.NewLeads,
			DoneLA:        l.DoneLA,
			DoneFV:        l.DoneFV,
			DoneCAD:       l.DoneCAD,
			DoneCDE:       l.DoneCDE,
			WonLA:         l.WonLA,
			WonFV:         l.WonFV,
			WonCAD:        l.WonCAD,
			TargetCalls:   l.TargetCalls,
			TargetBooked:  l.TargetBooked,
			TargetWon:     l.TargetWon,
			Energy:        l.Energy,
			Focus:         l.Focus,
			Confidence:    l.Confidence,
			MoodNote:      l.MoodNote,
		}
		if !l.UpdatedAt.IsZero() {
			jl.UpdatedAt = l.UpdatedAt.UTC().Format(time.RFC3339)
		}
		export.Logs = append(export.Logs, jl)
	}

	for _, p := range plans {
		export.Plans = append(export.Plans, jsonPlan{
			Month:           p.Month,
			WorkdaysPerWeek: int(p.WorkdaysPerWeek),
			TargetWonLA:     p.TargetWonLA,
			TargetWonFV:     p.TargetWonFV,
			TargetWonCAD:    p.TargetWonCAD,
			TargetNewLeads:  p.TargetNewLeads,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
