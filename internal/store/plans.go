package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/quotadesk/internal/activity"
)

const planColumns = `id, user_id, month, workdays_per_week,
	target_won_la, target_won_fv, target_won_cad, target_new_leads, updated_at`

const upsertPlanSQL = `INSERT INTO monthly_plans (user_id, month, workdays_per_week,
	target_won_la, target_won_fv, target_won_cad, target_new_leads, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, month) DO UPDATE SET
	workdays_per_week = excluded.workdays_per_week,
	target_won_la = excluded.target_won_la,
	target_won_fv = excluded.target_won_fv,
	target_won_cad = excluded.target_won_cad,
	target_new_leads = excluded.target_new_leads,
	updated_at = excluded.updated_at`

func scanPlan(row scanner) (activity.MonthlyPlan, error) {
	var p activity.MonthlyPlan
	var updatedAt string
	err := row.Scan(&p.ID, &p.UserID, &p.Month, &p.WorkdaysPerWeek,
		&p.TargetWonLA, &p.TargetWonFV, &p.TargetWonCAD, &p.TargetNewLeads, &updatedAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, err
}

func planArgs(p activity.MonthlyPlan, userID, updatedAt string) []any {
	return []any{userID, p.Month, int(p.WorkdaysPerWeek),
		p.TargetWonLA, p.TargetWonFV, p.TargetWonCAD, p.TargetNewLeads, updatedAt}
}

// UpsertPlan inserts or replaces the plan of p.Month.
func (s *Store) UpsertPlan(ctx context.Context, p activity.MonthlyPlan) (*activity.MonthlyPlan, error) {
	if _, err := activity.ParseMonth(p.Month, time.UTC); err != nil {
		return nil, fmt.Errorf("upsert plan: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, upsertPlanSQL, planArgs(p, s.userID, s.stamp())...); err != nil {
		return nil, fmt.Errorf("upsert plan %s: %w", p.Month, err)
	}
	return s.GetPlan(ctx, p.Month)
}

// ImportPlans writes plans in one transaction keeping their UpdatedAt.
func (s *Store) ImportPlans(ctx context.Context, plans []activity.MonthlyPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, p := range plans {
		updated := s.stamp()
		if !p.UpdatedAt.IsZero() {
			updated = p.UpdatedAt.UTC().Format(timeLayout)
		}
		if _, err := tx.ExecContext(ctx, upsertPlanSQL, planArgs(p, s.userID, updated)...); err != nil {
			return fmt.Errorf("import plan %s: %w", p.Month, err)
		}
	}
	return tx.Commit()
}

// GetPlan returns the plan of month, or nil if none was set.
func (s *Store) GetPlan(ctx context.Context, month string) (*activity.MonthlyPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM monthly_plans WHERE user_id = ? AND month = ?`, s.userID, month)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", month, err)
	}
	return &p, nil
}

// ListPlans returns every plan, newest month first.
func (s *Store) ListPlans(ctx context.Context) ([]activity.MonthlyPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM monthly_plans WHERE user_id = ? ORDER BY month DESC`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []activity.MonthlyPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
