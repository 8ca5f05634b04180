package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sadopc/quotadesk/internal/activity"
)

const logColumns = `id, user_id, date,
	calls_total, calls_refused, calls_no_answer, calls_answered, messages_sent,
	booked_la, booked_fv, booked_cad, new_leads,
	done_la, done_fv, done_cad, done_cde,
	won_la, won_fv, won_cad,
	target_calls, target_booked, target_won,
	energy_level, focus_level, confidence_level, mood_note, updated_at`

const upsertLogSQL = `INSERT INTO daily_logs (user_id, date,
	calls_total, calls_refused, calls_no_answer, calls_answered, messages_sent,
	booked_la, booked_fv, booked_cad, new_leads,
	done_la, done_fv, done_cad, done_cde,
	won_la, won_fv, won_cad,
	target_calls, target_booked, target_won,
	energy_level, focus_level, confidence_level, mood_note, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, date) DO UPDATE SET
	calls_total = excluded.calls_total,
	calls_refused = excluded.calls_refused,
	calls_no_answer = excluded.calls_no_answer,
	calls_answered = excluded.calls_answered,
	messages_sent = excluded.messages_sent,
	booked_la = excluded.booked_la,
	booked_fv = excluded.booked_fv,
	booked_cad = excluded.booked_cad,
	new_leads = excluded.new_leads,
	done_la = excluded.done_la,
	done_fv = excluded.done_fv,
	done_cad = excluded.done_cad,
	done_cde = excluded.done_cde,
	won_la = excluded.won_la,
	won_fv = excluded.won_fv,
	won_cad = excluded.won_cad,
	target_calls = excluded.target_calls,
	target_booked = excluded.target_booked,
	target_won = excluded.target_won,
	energy_level = excluded.energy_level,
	focus_level = excluded.focus_level,
	confidence_level = excluded.confidence_level,
	mood_note = excluded.mood_note,
	updated_at = excluded.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (activity.DailyLog, error) {
	var l activity.DailyLog
	var updatedAt string
	err := row.Scan(&l.ID, &l.UserID, &l.Date,
		&l.CallsTotal, &l.CallsRefused, &l.CallsNoAnswer, &l.CallsAnswered, &l.MessagesSent,
		&l.BookedLA, &l.BookedFV, &l.BookedCAD, &l.NewLeads,
		&l.DoneLA, &l.DoneFV, &l.DoneCAD, &l.DoneCDE,
		&l.WonLA, &l.WonFV, &l.WonCAD,
		&l.TargetCalls, &l.TargetBooked, &l.TargetWon,
		&l.Energy, &l.Focus, &l.Confidence, &l.MoodNote, &updatedAt,
	)
	l.UpdatedAt = parseTime(updatedAt)
	return l, err
}

func logArgs(l activity.DailyLog, userID, updatedAt string) []any {
	return []any{userID, l.Date,
		l.CallsTotal, l.CallsRefused, l.CallsNoAnswer, l.CallsAnswered, l.MessagesSent,
		l.BookedLA, l.BookedFV, l.BookedCAD, l.NewLeads,
		l.DoneLA, l.DoneFV, l.DoneCAD, l.DoneCDE,
		l.WonLA, l.WonFV, l.WonCAD,
		l.TargetCalls, l.TargetBooked, l.TargetWon,
		l.Energy, l.Focus, l.Confidence, l.MoodNote, updatedAt,
	}
}

// UpsertLog inserts or replaces the log of l.Date. CallsTotal is recomputed
// from its parts before writing.
func (s *Store) UpsertLog(ctx context.Context, l activity.DailyLog) (*activity.DailyLog, error) {
	if _, err := activity.ParseDate(l.Date); err != nil {
		return nil, fmt.Errorf("upsert log: %w", err)
	}
	l = l.Normalized()
	if _, err := s.db.ExecContext(ctx, upsertLogSQL, logArgs(l, s.userID, s.stamp())...); err != nil {
		return nil, fmt.Errorf("upsert log %s: %w", l.Date, err)
	}
	return s.GetLog(ctx, l.Date)
}

// ImportLogs writes logs in one transaction keeping their UpdatedAt. Rows
// are re-owned by the local user.
func (s *Store) ImportLogs(ctx context.Context, logs []activity.DailyLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertLogSQL)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, l := range logs {
		updated := s.stamp()
		if !l.UpdatedAt.IsZero() {
			updated = l.UpdatedAt.UTC().Format(timeLayout)
		}
		if _, err := stmt.ExecContext(ctx, logArgs(l.Normalized(), s.userID, updated)...); err != nil {
			return fmt.Errorf("import log %s: %w", l.Date, err)
		}
	}
	return tx.Commit()
}

// GetLog returns the log of date, or nil if none was recorded.
func (s *Store) GetLog(ctx context.Context, date string) (*activity.DailyLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM daily_logs WHERE user_id = ? AND date = ?`, s.userID, date)
	l, err := scanLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get log %s: %w", date, err)
	}
	return &l, nil
}

func (s *Store) DeleteLog(ctx context.Context, date string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM daily_logs WHERE user_id = ? AND date = ?`, s.userID, date)
	if err != nil {
		return fmt.Errorf("delete log %s: %w", date, err)
	}
	return nil
}

// ListLogs returns matching logs, newest first.
func (s *Store) ListLogs(ctx context.Context, f LogFilter) ([]activity.DailyLog, error) {
	query := `SELECT ` + logColumns + ` FROM daily_logs WHERE user_id = ?`
	args := []any{s.userID}

	if f.Month != "" {
		query += ` AND substr(date, 1, 7) = ?`
		args = append(args, f.Month)
	} else {
		if f.From != "" {
			query += ` AND date >= ?`
			args = append(args, f.From)
		}
		if f.To != "" {
			query += ` AND date <= ?`
			args = append(args, f.To)
		}
	}
	query += ` ORDER BY date DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []activity.DailyLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DailyTotals returns one row per logged day in [from, to], oldest first.
func (s *Store) DailyTotals(ctx context.Context, from, to string) ([]DayTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date,
		       SUM(calls_total + messages_sent),
		       SUM(booked_la + booked_fv + booked_cad),
		       SUM(done_la + done_fv + done_cad),
		       SUM(won_la + won_fv + won_cad)
		FROM daily_logs
		WHERE user_id = ? AND date >= ? AND date <= ?
		GROUP BY date
		ORDER BY date`,
		s.userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var totals []DayTotals
	for rows.Next() {
		var d DayTotals
		if err := rows.Scan(&d.Date, &d.Attempts, &d.Booked, &d.Done, &d.Won); err != nil {
			return nil, err
		}
		totals = append(totals, d)
	}
	return totals, rows.Err()
}
