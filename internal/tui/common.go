package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewLog
	viewPlan
	viewAnalysis
	viewHistory
	viewSettings
)

var viewNames = []string{"Today", "Log", "Plan", "Analysis", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

type logSavedMsg struct {
	log *activity.DailyLog
}

type planSavedMsg struct {
	plan *activity.MonthlyPlan
}

// editLogMsg opens the log form on a given day.
type editLogMsg struct {
	date string
}

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// --- Helpers ---

func formatPct(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

// progressBar draws done/target as a fixed-width bar.
func progressBar(done, target, width int) string {
	if width < 1 {
		return ""
	}
	filled := 0
	if target > 0 {
		filled = done * width / target
	} else if done > 0 {
		filled = width
	}
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func statusStyleFor(ok bool) func(...string) string {
	if ok {
		return successStyle.Render
	}
	return warningStyle.Render
}
