package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sadopc/quotadesk/internal/activity"
)

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if key == SettingUserID {
		return fmt.Errorf("set setting %q: read-only", key)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// WorkWeek is the default work week for new plans. Unknown values fall
// back to Monday to Friday.
func (s *Store) WorkWeek(ctx context.Context) (activity.WorkWeek, error) {
	n, err := s.intSetting(ctx, SettingWorkdaysPerWeek)
	if err != nil {
		return activity.WorkWeekMonFri, err
	}
	switch w := activity.WorkWeek(n); w {
	case activity.WorkWeekMonFri, activity.WorkWeekMonSat, activity.WorkWeekAll:
		return w, nil
	}
	return activity.WorkWeekMonFri, nil
}

// DailyCallCapacity is the attempts ceiling above which the daily plan
// warns. Zero disables the warning.
func (s *Store) DailyCallCapacity(ctx context.Context) (int, error) {
	n, err := s.intSetting(ctx, SettingDailyCallCapacity)
	if err != nil {
		return 0, err
	}
	return max(0, n), nil
}

func (s *Store) intSetting(ctx context.Context, key string) (int, error) {
	v, err := s.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse setting %q: %w", key, err)
	}
	return n, nil
}
