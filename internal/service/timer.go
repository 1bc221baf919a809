package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

// TimerService is the only component that faces wall-clock time on behalf
// of callers: it runs the periodic orphan-recovery sweep, computes elapsed
// time for display, and stamps last-activity as a diagnostic aid.
type TimerService struct {
	engine   *SessionEngine
	sessions domain.SessionRepository
	clock    domain.Clock
	interval time.Duration
}

// NewTimerService creates a TimerService. A zero interval defaults to five
// minutes between recovery sweeps.
func NewTimerService(engine *SessionEngine, sessions domain.SessionRepository, clock domain.Clock, interval time.Duration) *TimerService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &TimerService{engine: engine, sessions: sessions, clock: clock, interval: interval}
}

// Run sweeps for orphaned sessions on the configured interval until the
// context is cancelled. One sweep runs immediately so sessions abandoned by
// a crash are recovered at startup rather than after the first interval.
func (t *TimerService) Run(ctx context.Context) {
	t.sweep(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *TimerService) sweep(ctx context.Context) {
	recovered, err := t.engine.RecoverOrphans(ctx)
	if err != nil {
		slog.Error("orphan recovery sweep", "error", err)
		return
	}
	if len(recovered) > 0 {
		slog.Info("orphan recovery sweep completed", "recovered", len(recovered))
	}
}

// Elapsed returns the display duration for a session: the recorded duration
// for completed sessions, time since start otherwise.
func (t *TimerService) Elapsed(s *domain.Session) time.Duration {
	if s.Status == domain.SessionStatusCompleted && s.DurationSeconds != nil {
		return time.Duration(*s.DurationSeconds) * time.Second
	}
	elapsed := t.clock.Now().Sub(s.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// StampActivity refreshes last-activity on the worker's unfinished
// sessions. This is the "flush on unload" beacon: purely diagnostic, it
// never completes a session.
func (t *TimerService) StampActivity(ctx context.Context, workerID int64) error {
	open, err := t.sessions.ListUnfinishedByWorker(ctx, workerID)
	if err != nil {
		return err
	}
	now := t.clock.Now()
	for _, s := range open {
		if err := t.sessions.StampActivity(ctx, s.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// StampAll refreshes last-activity on every unfinished session. Called
// during graceful shutdown; failures are logged, not fatal.
func (t *TimerService) StampAll(ctx context.Context) {
	open, err := t.sessions.ListUnfinished(ctx)
	if err != nil {
		slog.Error("list unfinished sessions for shutdown stamp", "error", err)
		return
	}
	now := t.clock.Now()
	for _, s := range open {
		if err := t.sessions.StampActivity(ctx, s.ID, now); err != nil {
			slog.Error("stamp session activity", "session", s.ID, "error", err)
		}
	}
}
