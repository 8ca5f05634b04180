package remote

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/store"
)

// Local is the slice of the local store sync needs.
type Local interface {
	UserID() string
	ListLogs(ctx context.Context, f store.LogFilter) ([]activity.DailyLog, error)
	ListPlans(ctx context.Context) ([]activity.MonthlyPlan, error)
	ImportLogs(ctx context.Context, logs []activity.DailyLog) error
	ImportPlans(ctx context.Context, plans []activity.MonthlyPlan) error
	SetSetting(ctx context.Context, key, value string) error
}

// Remote is the shared database.
type Remote interface {
	PushLogs(ctx context.Context, userID string, logs []activity.DailyLog) error
	PushPlans(ctx context.Context, userID string, plans []activity.MonthlyPlan) error
	FetchLogs(ctx context.Context, userID string) ([]activity.DailyLog, error)
	FetchPlans(ctx context.Context, userID string) ([]activity.MonthlyPlan, error)
}

// Result counts the rows moved by one sync.
type Result struct {
	Logs  int
	Plans int
}

// Syncer copies logs and plans between the local store and the remote
// database. The last writer wins on both sides.
type Syncer struct {
	local  Local
	remote Remote
	logger *zap.Logger
	now    func() time.Time
}

func NewSyncer(local Local, remote Remote, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{local: local, remote: remote, logger: logger, now: time.Now}
}

// Push uploads every local log and plan.
func (s *Syncer) Push(ctx context.Context) (Result, error) {
	userID := s.local.UserID()
	var res Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs, err := s.local.ListLogs(gctx, store.LogFilter{})
		if err != nil {
			return err
		}
		if err := s.remote.PushLogs(gctx, userID, logs); err != nil {
			return err
		}
		res.Logs = len(logs)
		return nil
	})
	g.Go(func() error {
		plans, err := s.local.ListPlans(gctx)
		if err != nil {
			return err
		}
		if err := s.remote.PushPlans(gctx, userID, plans); err != nil {
			return err
		}
		res.Plans = len(plans)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("push: %w", err)
	}

	s.logger.Info("sync push complete",
		zap.String("user_id", userID),
		zap.Int("logs", res.Logs),
		zap.Int("plans", res.Plans),
	)
	return res, s.markSynced(ctx)
}

// Pull downloads the remote rows of the local user and writes them locally.
func (s *Syncer) Pull(ctx context.Context) (Result, error) {
	userID := s.local.UserID()
	var (
		logs  []activity.DailyLog
		plans []activity.MonthlyPlan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		logs, err = s.remote.FetchLogs(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		plans, err = s.remote.FetchPlans(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("pull: %w", err)
	}

	if err := s.local.ImportLogs(ctx, logs); err != nil {
		return Result{}, fmt.Errorf("pull: %w", err)
	}
	if err := s.local.ImportPlans(ctx, plans); err != nil {
		return Result{}, fmt.Errorf("pull: %w", err)
	}

	res := Result{Logs: len(logs), Plans: len(plans)}
	s.logger.Info("sync pull complete",
		zap.String("user_id", userID),
		zap.Int("logs", res.Logs),
		zap.Int("plans", res.Plans),
	)
	return res, s.markSynced(ctx)
}

func (s *Syncer) markSynced(ctx context.Context) error {
	if err := s.local.SetSetting(ctx, store.SettingLastSync, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record last sync: %w", err)
	}
	return nil
}
