package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/kudamusaisiwa/royalprecast/internal/cache"
	"github.com/kudamusaisiwa/royalprecast/internal/clock"
	obsmetrics "github.com/kudamusaisiwa/royalprecast/internal/observability/metrics"
	taskdomain "github.com/kudamusaisiwa/royalprecast/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const overdueLockKey = "scheduler:overdue_sweep"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

// Config controls scheduler cadence and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Minute,
		BatchSize:   100,
		JobTimeout:  time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	TaskSvc taskdomain.Service
	Locker  *cache.Locker       `optional:"true"`
	Metrics *obsmetrics.Metrics `optional:"true"`
	Config  Config              `optional:"true"`
}

// Scheduler runs periodic maintenance jobs. Today that is one job:
// flagging follow-up tasks that slipped past their due date.
type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	taskSvc taskdomain.Service
	locker  *cache.Locker
	metrics *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.TaskSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler"),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		taskSvc: p.TaskSvc,
		locker:  p.Locker,
		metrics: p.Metrics,
	}, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()
	return s.sweepOverdueTasks(ctx)
}

// sweepOverdueTasks flags pending follow-ups past their due date. The
// redis lock keeps the sweep single-flight when several processes share
// the store; without redis each process sweeps on its own, which is
// harmless because flagging is guarded per task.
func (s *Scheduler) sweepOverdueTasks(ctx context.Context) error {
	token, acquired, err := s.locker.TryLock(ctx, overdueLockKey, s.cfg.RunInterval)
	if err != nil {
		s.log.Debug("overdue sweep lock unavailable", zap.Error(err))
		return nil
	}
	if !acquired {
		return nil
	}
	defer func() {
		if releaseErr := s.locker.Release(context.WithoutCancel(ctx), overdueLockKey, token); releaseErr != nil {
			s.log.Debug("overdue sweep lock release failed", zap.Error(releaseErr))
		}
	}()

	now := s.clock.Now()
	flagged, err := s.taskSvc.SweepOverdue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.countRun("overdue_sweep", "error")
		return err
	}
	s.countRun("overdue_sweep", "ok")

	for _, task := range flagged {
		s.log.Info("follow-up task overdue",
			zap.String("task_id", task.ID.String()),
			zap.String("order_id", task.OrderID.String()),
			zap.String("assigned_to", task.AssignedTo),
			zap.Time("due_date", task.DueDate),
		)
	}
	if len(flagged) > 0 {
		s.log.Info("overdue sweep finished", zap.Int("flagged", len(flagged)))
	}
	return nil
}

func (s *Scheduler) countRun(job, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SchedulerRuns.WithLabelValues(job, outcome).Inc()
}
