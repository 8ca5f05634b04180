// Package service loads data from the store, fixes the clock once per call
// and runs the planning and insight engines over it.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/insights"
	"github.com/sadopc/quotadesk/internal/planning"
	"github.com/sadopc/quotadesk/internal/store"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	ListLogs(ctx context.Context, f store.LogFilter) ([]activity.DailyLog, error)
	GetLog(ctx context.Context, date string) (*activity.DailyLog, error)
	UpsertLog(ctx context.Context, l activity.DailyLog) (*activity.DailyLog, error)
	DeleteLog(ctx context.Context, date string) error
	GetPlan(ctx context.Context, month string) (*activity.MonthlyPlan, error)
	UpsertPlan(ctx context.Context, p activity.MonthlyPlan) (*activity.MonthlyPlan, error)
	WorkWeek(ctx context.Context) (activity.WorkWeek, error)
	DailyCallCapacity(ctx context.Context) (int, error)
}

type Options struct {
	Location *time.Location
	Workday  planning.Workday
	Role     insights.Role
	TeamSize int
	Logger   *zap.Logger
	Now      func() time.Time
}

type Service struct {
	repo Repository
	opts Options
	log  *zap.Logger
}

// New fills unset options with defaults: Europe/Rome, 09:00-19:00, member.
func New(repo Repository, opts Options) *Service {
	if opts.Location == nil {
		loc, err := activity.LoadLocation(activity.DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
		opts.Location = loc
	}
	if opts.Workday == (planning.Workday{}) {
		opts.Workday = planning.DefaultWorkday
	}
	if opts.Role == "" {
		opts.Role = insights.RoleMember
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, opts: opts, log: opts.Logger}
}

// Now is the current civil time in the configured location.
func (s *Service) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Service) Location() *time.Location { return s.opts.Location }

// Today is everything the dashboard shows for the current day.
type Today struct {
	Now    time.Time
	Plan   planning.TodayPlan
	Log    activity.DailyLog
	Logged bool
	Pace   planning.Pace
}

// TodayPlan computes today's quotas for the current month and the pacing of
// today's closed contracts against the won quota.
func (s *Service) TodayPlan(ctx context.Context) (*Today, error) {
	now := s.Now()
	month := activity.MonthKey(now)

	var (
		logs     []activity.DailyLog
		plan     *activity.MonthlyPlan
		capacity int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		logs, err = s.repo.ListLogs(gctx, store.LogFilter{})
		return err
	})
	g.Go(func() (err error) {
		plan, err = s.repo.GetPlan(gctx, month)
		return err
	})
	g.Go(func() (err error) {
		capacity, err = s.repo.DailyCallCapacity(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load today: %w", err)
	}
	s.log.Debug("loaded activity",
		zap.Int("logs", len(logs)),
		zap.Bool("has_plan", plan != nil),
		zap.String("month", month),
	)

	tp := planning.PlanToday(logs, plan, now, capacity)
	if tp.Remaining != nil {
		s.logDistribution(tp.Remaining.Debug)
	}

	t := &Today{Now: now, Plan: tp, Log: activity.NewDailyLog(activity.DateKey(now))}
	for _, l := range logs {
		if l.Date == t.Log.Date {
			t.Log, t.Logged = l, true
			break
		}
	}
	t.Pace = planning.Project(now, t.Log.WonTotal(), tp.DailyWon, s.opts.Workday)
	return t, nil
}

// Simulation is a what-if run of the funnel for one month.
type Simulation struct {
	Month       string
	Rates       planning.Context
	Requirement planning.Requirement
	Remaining   planning.RemainingPlan
}

// TargetsFor returns the stored targets of month, or zero targets on the
// configured work week when none are set.
func (s *Service) TargetsFor(ctx context.Context, month string) (planning.Targets, error) {
	plan, err := s.repo.GetPlan(ctx, month)
	if err != nil {
		return planning.Targets{}, fmt.Errorf("load targets: %w", err)
	}
	if plan != nil {
		return planning.TargetsFromPlan(*plan), nil
	}
	week, err := s.repo.WorkWeek(ctx)
	if err != nil {
		return planning.Targets{}, fmt.Errorf("load targets: %w", err)
	}
	return planning.TargetsFromPlan(activity.MonthlyPlan{Month: month, WorkdaysPerWeek: week}), nil
}

// Simulate sizes the funnel for targets with the given rate uplifts and
// spreads what is left of month over its remaining workdays.
func (s *Service) Simulate(ctx context.Context, month string, targets planning.Targets, mods planning.Modifiers) (*Simulation, error) {
	if _, err := activity.ParseMonth(month, s.opts.Location); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	logs, err := s.repo.ListLogs(ctx, store.LogFilter{})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if targets.WorkdaysPerWeek == 0 {
		if targets.WorkdaysPerWeek, err = s.repo.WorkWeek(ctx); err != nil {
			return nil, fmt.Errorf("simulate: %w", err)
		}
	}

	now := s.Now()
	rates := planning.ResolveRates(logs, now)
	req := planning.Size(targets, rates, logs, now, mods)
	rem := planning.Distribute(req, logs, month, targets.WorkdaysPerWeek, now)
	s.logDistribution(rem.Debug)

	return &Simulation{Month: month, Rates: rates, Requirement: req, Remaining: rem}, nil
}

// Analysis is the diagnosis of one reporting period.
type Analysis struct {
	Period    activity.Period
	From, To  string
	Days      int
	Dashboard insights.Dashboard
	KPIs      insights.KPIReport
	Strategic insights.StrategicInsights
	Diagnosis insights.Diagnosis
}

// Diagnose analyses the logs of period. from and to are only read for
// custom periods.
func (s *Service) Diagnose(ctx context.Context, period activity.Period, from, to string) (*Analysis, error) {
	all, err := s.repo.ListLogs(ctx, store.LogFilter{})
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}

	now := s.Now()
	lo, hi := period.Range(now, from, to)
	logs := activity.Filter(all, activity.Between(lo, hi))
	agg := activity.Aggregate(logs)
	s.log.Debug("diagnose",
		zap.String("period", string(period)),
		zap.String("from", lo),
		zap.String("to", hi),
		zap.Int("days", len(logs)),
	)

	return &Analysis{
		Period:    period,
		From:      lo,
		To:        hi,
		Days:      len(logs),
		Dashboard: insights.DashboardMetrics(logs, all, now),
		KPIs:      insights.KPIs(agg),
		Strategic: insights.Strategic(logs, all, now),
		Diagnosis: insights.Diagnose(insights.MetricsFromAggregate(agg), s.opts.Role, s.opts.TeamSize),
	}, nil
}

func (s *Service) logDistribution(d planning.Debug) {
	s.log.Debug("remaining plan distributed", zap.Any("debug", d))
	if d.Range.IsOutOfRange {
		s.log.Warn("month-to-date logs outside the requested month",
			zap.String("month", d.MonthKey),
			zap.String("expected_start", d.Range.ExpectedStart),
			zap.String("expected_end_exclusive", d.Range.ExpectedEndExclusive),
			zap.String("actual_min", d.Range.ActualMinDate),
			zap.String("actual_max", d.Range.ActualMaxDate),
		)
	}
}

// SaveLog stores l, stamping the default targets on an empty snapshot.
func (s *Service) SaveLog(ctx context.Context, l activity.DailyLog) (*activity.DailyLog, error) {
	if l.TargetCalls == 0 && l.TargetBooked == 0 && l.TargetWon == 0 {
		l.TargetCalls = activity.DefaultTargetCalls
		l.TargetBooked = activity.DefaultTargetBooked
		l.TargetWon = activity.DefaultTargetWon
	}
	saved, err := s.repo.UpsertLog(ctx, l)
	if err != nil {
		return nil, err
	}
	s.log.Info("log saved", zap.String("date", l.Date), zap.Int("won", saved.WonTotal()))
	return saved, nil
}

func (s *Service) SavePlan(ctx context.Context, p activity.MonthlyPlan) (*activity.MonthlyPlan, error) {
	if p.WorkdaysPerWeek == 0 {
		week, err := s.repo.WorkWeek(ctx)
		if err != nil {
			return nil, err
		}
		p.WorkdaysPerWeek = week
	}
	saved, err := s.repo.UpsertPlan(ctx, p)
	if err != nil {
		return nil, err
	}
	s.log.Info("plan saved", zap.String("month", p.Month), zap.Int("target_won", p.TargetWonTotal()))
	return saved, nil
}

func (s *Service) DeleteLog(ctx context.Context, date string) error {
	if err := s.repo.DeleteLog(ctx, date); err != nil {
		return err
	}
	s.log.Info("log deleted", zap.String("date", date))
	return nil
}

// Log returns the log of date or a blank one with default targets.
func (s *Service) Log(ctx context.Context, date string) (activity.DailyLog, error) {
	l, err := s.repo.GetLog(ctx, date)
	if err != nil {
		return activity.DailyLog{}, err
	}
	if l == nil {
		return activity.NewDailyLog(date), nil
	}
	return *l, nil
}

func (s *Service) Logs(ctx context.Context, f store.LogFilter) ([]activity.DailyLog, error) {
	return s.repo.ListLogs(ctx, f)
}

// Plan returns the plan of month, or nil.
func (s *Service) Plan(ctx context.Context, month string) (*activity.MonthlyPlan, error) {
	return s.repo.GetPlan(ctx, month)
}
