package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

func sampleData() ([]activity.DailyLog, []activity.MonthlyPlan) {
	first := activity.NewDailyLog("2025-03-10")
	first.CallsAnswered, first.CallsRefused, first.CallsNoAnswer = 20, 10, 10
	first.MessagesSent = 5
	first.BookedLA, first.DoneLA, first.WonLA = 3, 2, 1
	first.DoneCDE = 2
	first.MoodNote = "solid day"
	first.UpdatedAt = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	second := activity.NewDailyLog("2025-03-11")
	second.CallsAnswered = 5

	third := activity.NewDailyLog("2025-03-12")
	third.BookedFV, third.DoneFV, third.WonFV = 2, 2, 2

	plan := activity.NewMonthlyPlan("2025-03")
	plan.TargetWonLA, plan.TargetNewLeads = 5, 20

	return []activity.DailyLog{first, second, third}, []activity.MonthlyPlan{plan}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	logs, _ := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	err := ToCSV(logs, path)
	if err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	// Check header
	header := records[0]
	for i, h := range csvHeader {
		if header[i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, header[i], h)
		}
	}

	col := func(name string) int {
		for i, h := range csvHeader {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}

	// Check first data row
	row := records[1]
	if row[col("Date")] != "2025-03-10" {
		t.Fatalf("Date = %q", row[col("Date")])
	}
	if row[col("Calls")] != "40" {
		t.Fatalf("Calls = %q, want 40", row[col("Calls")])
	}
	if row[col("Attempts")] != "45" {
		t.Fatalf("Attempts = %q, want 45", row[col("Attempts")])
	}
	if row[col("Win Rate")] != "50%" {
		t.Fatalf("Win Rate = %q, want 50%%", row[col("Win Rate")])
	}
	if row[col("Notes")] != "solid day" {
		t.Fatalf("Notes = %q", row[col("Notes")])
	}

	// A day without completed appointments has no win rate.
	if got := records[2][col("Win Rate")]; got != "N/A" {
		t.Fatalf("expected N/A win rate, got %q", got)
	}
	if got := records[3][col("Won Total")]; got != "2" {
		t.Fatalf("Won Total = %q, want 2", got)
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	err := ToCSV(nil, path)
	if err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	l := activity.NewDailyLog("2025-03-10")
	l.MoodNote = `notes with "quotes" and, commas`
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV([]activity.DailyLog{l}, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if got := records[1][len(csvHeader)-1]; got != `notes with "quotes" and, commas` {
		t.Fatalf("notes mangled: %q", got)
	}
}

func TestWriteCSVToBuffer(t *testing.T) {
	logs, _ := sampleData()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, logs[:1]); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	logs, plans := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	err := ToJSON(logs, plans, path)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Logs) != 3 {
		t.Fatalf("logs = %d, want 3", len(result.Logs))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	// Check first log
	l := result.Logs[0]
	if l.Date != "2025-03-10" {
		t.Fatalf("Date = %q", l.Date)
	}
	if l.CallsTotal != 40 {
		t.Fatalf("CallsTotal = %d, want 40", l.CallsTotal)
	}
	if l.DoneCDE != 2 {
		t.Fatalf("DoneCDE = %d, want 2", l.DoneCDE)
	}
	if l.MoodNote != "solid day" {
		t.Fatalf("MoodNote = %q", l.MoodNote)
	}
	if l.UpdatedAt != "2025-03-10T18:00:00Z" {
		t.Fatalf("UpdatedAt = %q", l.UpdatedAt)
	}
	if result.Logs[1].UpdatedAt != "" {
		t.Fatalf("unsaved log should have no updated_at, got %q", result.Logs[1].UpdatedAt)
	}

	if len(result.Plans) != 1 || result.Plans[0].TargetWonLA != 5 || result.Plans[0].WorkdaysPerWeek != 5 {
		t.Fatalf("unexpected plans: %+v", result.Plans)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	err := ToJSON(nil, nil, path)
	if err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Logs != nil {
		t.Fatal("logs should be nil/null for empty export")
	}
	if strings.Contains(string(data), `"plans"`) {
		t.Fatal("plans should be omitted when empty")
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, nil, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, nil, path)

	data, _ := os.ReadFile(path)
	// Pretty-printed JSON should contain newlines and indentation
	if !strings.Contains(string(data), "\n") {
		t.Fatal("JSON should be pretty-printed with newlines")
	}
	if !strings.Contains(string(data), "  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	logs, plans := sampleData()
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(logs, plans, path)

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	// exported_at should be valid RFC3339
	_, err := time.Parse(time.RFC3339, result.ExportedAt)
	if err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	for _, l := range result.Logs {
		if _, err := time.Parse(activity.DateLayout, l.Date); err != nil {
			t.Fatalf("date is not YYYY-MM-DD: %q", l.Date)
		}
	}
}

// ============================================================
// formatRate (internal helper)
// ============================================================

func TestFormatRate(t *testing.T) {
	tests := []struct {
		num, den int
		want     string
	}{
		{0, 0, "N/A"},
		{5, 0, "N/A"},
		{0, 4, "0%"},
		{1, 2, "50%"},
		{1, 3, "33%"},
		{2, 3, "67%"},
		{3, 2, "150%"},
	}

	for _, tt := range tests {
		got := formatRate(tt.num, tt.den)
		if got != tt.want {
			t.Errorf("formatRate(%d, %d) = %q, want %q", tt.num, tt.den, got, tt.want)
		}
	}
}
