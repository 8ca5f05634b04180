// Package remote mirrors the local activity log to a shared PostgreSQL
// database and pulls it back.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/quotadesk/internal/activity"
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_logs (
	user_id          TEXT NOT NULL,
	date             TEXT NOT NULL,
	calls_total      INTEGER NOT NULL DEFAULT 0,
	calls_refused    INTEGER NOT NULL DEFAULT 0,
	calls_no_answer  INTEGER NOT NULL DEFAULT 0,
	calls_answered   INTEGER NOT NULL DEFAULT 0,
	messages_sent    INTEGER NOT NULL DEFAULT 0,
	booked_la        INTEGER NOT NULL DEFAULT 0,
	booked_fv        INTEGER NOT NULL DEFAULT 0,
	booked_cad       INTEGER NOT NULL DEFAULT 0,
	new_leads        INTEGER NOT NULL DEFAULT 0,
	done_la          INTEGER NOT NULL DEFAULT 0,
	done_fv          INTEGER NOT NULL DEFAULT 0,
	done_cad         INTEGER NOT NULL DEFAULT 0,
	done_cde         INTEGER NOT NULL DEFAULT 0,
	won_la           INTEGER NOT NULL DEFAULT 0,
	won_fv           INTEGER NOT NULL DEFAULT 0,
	won_cad          INTEGER NOT NULL DEFAULT 0,
	target_calls     INTEGER NOT NULL DEFAULT 0,
	target_booked    INTEGER NOT NULL DEFAULT 0,
	target_won       INTEGER NOT NULL DEFAULT 0,
	energy_level     INTEGER NOT NULL DEFAULT 0,
	focus_level      INTEGER NOT NULL DEFAULT 0,
	confidence_level INTEGER NOT NULL DEFAULT 0,
	mood_note        TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS monthly_plans (
	user_id           TEXT NOT NULL,
	month             TEXT NOT NULL,
	workdays_per_week INTEGER NOT NULL DEFAULT 5,
	target_won_la     INTEGER NOT NULL DEFAULT 0,
	target_won_fv     INTEGER NOT NULL DEFAULT 0,
	target_won_cad    INTEGER NOT NULL DEFAULT 0,
	target_new_leads  INTEGER NOT NULL DEFAULT 0,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, month)
);`

const logColumns = `user_id, date,
	calls_total, calls_refused, calls_no_answer, calls_answered, messages_sent,
	booked_la, booked_fv, booked_cad, new_leads,
	done_la, done_fv, done_cad, done_cde,
	won_la, won_fv, won_cad,
	target_calls, target_booked, target_won,
	energy_level, focus_level, confidence_level, mood_note, updated_at`

const upsertLogSQL = `INSERT INTO daily_logs (` + logColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
ON CONFLICT (user_id, date) DO UPDATE SET
	calls_total = EXCLUDED.calls_total,
	calls_refused = EXCLUDED.calls_refused,
	calls_no_answer = EXCLUDED.calls_no_answer,
	calls_answered = EXCLUDED.calls_answered,
	messages_sent = EXCLUDED.messages_sent,
	booked_la = EXCLUDED.booked_la,
	booked_fv = EXCLUDED.booked_fv,
	booked_cad = EXCLUDED.booked_cad,
	new_leads = EXCLUDED.new_leads,
	done_la = EXCLUDED.done_la,
	done_fv = EXCLUDED.done_fv,
	done_cad = EXCLUDED.done_cad,
	done_cde = EXCLUDED.done_cde,
	won_la = EXCLUDED.won_la,
	won_fv = EXCLUDED.won_fv,
	won_cad = EXCLUDED.won_cad,
	target_calls = EXCLUDED.target_calls,
	target_booked = EXCLUDED.target_booked,
	target_won = EXCLUDED.target_won,
	energy_level = EXCLUDED.energy_level,
	focus_level = EXCLUDED.focus_level,
	confidence_level = EXCLUDED.confidence_level,
	mood_note = EXCLUDED.mood_note,
	updated_at = EXCLUDED.updated_at`

const planColumns = `user_id, month, workdays_per_week,
	target_won_la, target_won_fv, target_won_cad, target_new_leads, updated_at`

const upsertPlanSQL = `INSERT INTO monthly_plans (` + planColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id, month) DO UPDATE SET
	workdays_per_week = EXCLUDED.workdays_per_week,
	target_won_la = EXCLUDED.target_won_la,
	target_won_fv = EXCLUDED.target_won_fv,
	target_won_cad = EXCLUDED.target_won_cad,
	target_new_leads = EXCLUDED.target_new_leads,
	updated_at = EXCLUDED.updated_at`

// Repository provides Postgres-backed storage for logs and plans.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool to url and checks it is reachable.
func Connect(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping remote: %w", err)
	}
	return NewRepository(pool), nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

// EnsureSchema creates the tables if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PushLogs upserts logs for userID in one transaction.
func (r *Repository) PushLogs(ctx context.Context, userID string, logs []activity.DailyLog) error {
	batch := &pgx.Batch{}
	for _, l := range logs {
		l = l.Normalized()
		batch.Queue(upsertLogSQL, userID, l.Date,
			l.CallsTotal, l.CallsRefused, l.CallsNoAnswer, l.CallsAnswered, l.MessagesSent,
			l.BookedLA, l.BookedFV, l.BookedCAD, l.NewLeads,
			l.DoneLA, l.DoneFV, l.DoneCAD, l.DoneCDE,
			l.WonLA, l.WonFV, l.WonCAD,
			l.TargetCalls, l.TargetBooked, l.TargetWon,
			l.Energy, l.Focus, l.Confidence, l.MoodNote, updatedAt(l.UpdatedAt),
		)
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("push logs: %w", err)
	}
	return nil
}

// PushPlans upserts plans for userID in one transaction.
func (r *Repository) PushPlans(ctx context.Context, userID string, plans []activity.MonthlyPlan) error {
	batch := &pgx.Batch{}
	for _, p := range plans {
		batch.Queue(upsertPlanSQL, userID, p.Month, int(p.WorkdaysPerWeek),
			p.TargetWonLA, p.TargetWonFV, p.TargetWonCAD, p.TargetNewLeads, updatedAt(p.UpdatedAt))
	}
	if err := r.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("push plans: %w", err)
	}
	return nil
}

func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch) (err error) {
	if batch.Len() == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err = results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// FetchLogs returns every log of userID, oldest first.
func (r *Repository) FetchLogs(ctx context.Context, userID string) ([]activity.DailyLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+logColumns+` FROM daily_logs WHERE user_id = $1 ORDER BY date`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}
	defer rows.Close()

	var logs []activity.DailyLog
	for rows.Next() {
		var l activity.DailyLog
		if err := rows.Scan(&l.UserID, &l.Date,
			&l.CallsTotal, &l.CallsRefused, &l.CallsNoAnswer, &l.CallsAnswered, &l.MessagesSent,
			&l.BookedLA, &l.BookedFV, &l.BookedCAD, &l.NewLeads,
			&l.DoneLA, &l.DoneFV, &l.DoneCAD, &l.DoneCDE,
			&l.WonLA, &l.WonFV, &l.WonCAD,
			&l.TargetCalls, &l.TargetBooked, &l.TargetWon,
			&l.Energy, &l.Focus, &l.Confidence, &l.MoodNote, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}
	return logs, nil
}

// FetchPlans returns every plan of userID, oldest month first.
func (r *Repository) FetchPlans(ctx context.Context, userID string) ([]activity.MonthlyPlan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+planColumns+` FROM monthly_plans WHERE user_id = $1 ORDER BY month`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch plans: %w", err)
	}
	defer rows.Close()

	var plans []activity.MonthlyPlan
	for rows.Next() {
		var p activity.MonthlyPlan
		var week int
		if err := rows.Scan(&p.UserID, &p.Month, &week,
			&p.TargetWonLA, &p.TargetWonFV, &p.TargetWonCAD, &p.TargetNewLeads, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.WorkdaysPerWeek = activity.WorkWeek(week)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch plans: %w", err)
	}
	return plans, nil
}

func updatedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
