package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sadopc/quotadesk/internal/activity"
)

var csvHeader = []string{
	"Date", "Calls", "Refused", "No Answer", "Answered", "Messages", "Attempts",
	"Booked LA", "Booked FV", "Booked CAD", "New Leads",
	"Done LA", "Done FV", "Done CAD", "Done CDE",
	"Won LA", "Won FV", "Won CAD", "Won Total", "Win Rate",
	"Target Calls", "Target Booked", "Target Won",
	"Energy", "Focus", "Confidence", "Notes",
}

// ToCSV writes logs to a new file at path.
func ToCSV(logs []activity.DailyLog, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, logs)
}

// WriteCSV writes a header and one row per log, in the order given.
func WriteCSV(out io.Writer, logs []activity.DailyLog) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, l := range logs {
		l = l.Normalized()
		row := []string{
			l.Date,
			itoa(l.CallsTotal), itoa(l.CallsRefused), itoa(l.CallsNoAnswer), itoa(l.CallsAnswered),
			itoa(l.MessagesSent), itoa(l.Attempts()),
			itoa(l.BookedLA), itoa(l.BookedFV), itoa(l.BookedCAD), itoa(l.NewLeads),
			itoa(l.DoneLA), itoa(l.DoneFV), itoa(l.DoneCAD), itoa(l.DoneCDE),
			itoa(l.WonLA), itoa(l.WonFV), itoa(l.WonCAD), itoa(l.WonTotal()),
			formatRate(l.WonTotal(), l.DoneTotal()),
			itoa(l.TargetCalls), itoa(l.TargetBooked), itoa(l.TargetWon),
			itoa(l.Energy), itoa(l.Focus), itoa(l.Confidence),
			l.MoodNote,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }

// formatRate renders num/den as a whole percentage, N/A when den is zero.
func formatRate(num, den int) string {
	if den == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", float64(num)/float64(den)*100)
}
