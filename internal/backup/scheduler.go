// internal/backup/scheduler.go
//
// Scheduler drives Manager on a timer.
//
// Workflow
// --------
//  1. After InitialDelay: one snapshot, then a prune so a directory left
//     over from earlier runs is trimmed right away.
//  2. Every Interval: Manager.Cycle (write, prune, restore).
//
// One goroutine owns both timers, so the initial snapshot and every cycle
// run strictly one after another; the ticker drops ticks that fire while a
// cycle is still running.
package backup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler defaults.
const (
	DefaultInterval     = 5 * time.Minute
	DefaultInitialDelay = 10 * time.Second
)

// Schedule configures a Scheduler.
type Schedule struct {
	InitialDelay       time.Duration // one-shot snapshot after start
	Interval           time.Duration // snapshot, prune, restore cadence
	RestoreAfterBackup bool          // step three of each cycle
	CycleTimeout       time.Duration // 0 disables
}

// Scheduler runs the initial snapshot and the periodic cycle.
type Scheduler struct {
	m     *Manager
	sched Schedule
	log   *zap.Logger
}

// NewScheduler returns a Scheduler for m.  A zero Interval or negative
// InitialDelay selects the defaults.
func NewScheduler(m *Manager, sched Schedule, log *zap.Logger) *Scheduler {
	if sched.Interval <= 0 {
		sched.Interval = DefaultInterval
	}
	if sched.InitialDelay < 0 {
		sched.InitialDelay = DefaultInitialDelay
	}
	if log == nil {
		log = zap.L().Named("backup")
	}
	return &Scheduler{m: m, sched: sched, log: log}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	initial := time.NewTimer(s.sched.InitialDelay)
	defer initial.Stop()
	ticker := time.NewTicker(s.sched.Interval)
	defer ticker.Stop()

	s.log.Info("backup scheduler started",
		zap.String("dir", s.m.Dir()),
		zap.Duration("initial_delay", s.sched.InitialDelay),
		zap.Duration("interval", s.sched.Interval),
		zap.Bool("restore_after_backup", s.sched.RestoreAfterBackup),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("backup scheduler stopped")
			return
		case <-initial.C:
			s.initialSnapshot(ctx)
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) initialSnapshot(ctx context.Context) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	info, err := s.m.CreateSnapshot(ctx)
	if err != nil {
		s.log.Error("initial snapshot failed", zap.Error(err))
		return
	}
	s.log.Info("initial snapshot created", zap.String("file", info.Name))
	s.m.Prune(ctx)
}

func (s *Scheduler) cycle(ctx context.Context) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	s.m.Cycle(ctx, s.sched.RestoreAfterBackup)
}

func (s *Scheduler) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.sched.CycleTimeout > 0 {
		return context.WithTimeout(ctx, s.sched.CycleTimeout)
	}
	return context.WithCancel(ctx)
}
