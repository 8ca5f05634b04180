package store

// Setting keys.
const (
	SettingUserID            = "user_id"
	SettingWorkdaysPerWeek   = "workdays_per_week"
	SettingDailyCallCapacity = "daily_call_capacity"
	SettingLastSync          = "last_sync"
)

type Setting struct {
	Key   string
	Value string
}

// LogFilter is used to filter daily logs in queries. From and To are
// inclusive YYYY-MM-DD keys.
type LogFilter struct {
	From  string
	To    string
	Month string // YYYY-MM, overrides From/To
	Limit int
}

// DayTotals is the per-day funnel used by charts.
type DayTotals struct {
	Date     string
	Attempts int
	Booked   int
	Done     int
	Won      int
}
