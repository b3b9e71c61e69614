// Package sweep reconciles execution logs abandoned in the running state. A
// process crash mid-run leaves its log running forever; the sweeper marks
// such logs failed once they age past a TTL.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadflowhq/leadflow/pkg/persistence"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule = "*/5 * * * *"
	DefaultTTL      = time.Hour
)

// Sweeper periodically fails stale running logs.
type Sweeper struct {
	logs     persistence.ExecutionLogRepository
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewSweeper(logs persistence.ExecutionLogRepository, ttl time.Duration, schedule string, logger *slog.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Sweeper{
		logs:     logs,
		ttl:      ttl,
		schedule: schedule,
		logger:   logger.With("module", "sweep"),
	}
}

// Start schedules the sweep and runs one immediately so a restart catches up
// without waiting for the first tick.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.SweepOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.SweepOnce(ctx)
	s.cron.Start()

	s.logger.InfoContext(ctx, "Sweeper started", "schedule", s.schedule, "ttl", s.ttl.String())

	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
}

// SweepOnce runs a single reconciliation pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	reconciled, err := s.logs.MarkStale(ctx, s.ttl)
	if err != nil {
		s.logger.ErrorContext(ctx, "Sweep failed", "error", err)

		return
	}

	if reconciled > 0 {
		s.logger.InfoContext(ctx, "Reconciled stale execution logs", "count", reconciled)
	}
}
