package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mferrant/casetrack/internal/domain"
)

// EventType identifies a session lifecycle notification.
type EventType string

const (
	EventSessionStarted         EventType = "session_started"
	EventSessionEnded           EventType = "session_ended"
	EventSessionAutoStopped     EventType = "session_auto_stopped"
	EventSessionsRecovered      EventType = "sessions_recovered"
	EventSessionsForceCompleted EventType = "sessions_force_completed"
)

// Event is delivered to subscribers synchronously after the corresponding
// store write, so a listener that re-reads the store is guaranteed to see
// the write that triggered it.
type Event struct {
	Type     EventType
	Session  *domain.Session  // set for single-session events
	Sessions []domain.Session // set for batch events
}

// SessionEngine is the session state machine. Every terminating transition
// (end, auto-stop, force-complete, orphan recovery) funnels through one
// completion path, so the single-active-session invariant and the
// entry-synthesis rule cannot be bypassed by any caller.
type SessionEngine struct {
	sessions domain.SessionRepository
	log      *ServiceLogService
	clock    domain.Clock

	// orphanThreshold is how long a session may stay active before a
	// recovery sweep treats it as abandoned. This is policy, not mechanism:
	// it defaults to the per-session billing cap but may diverge from it.
	orphanThreshold time.Duration

	mu        sync.Mutex
	listeners []func(Event)
}

// NewSessionEngine creates a SessionEngine. A zero orphanThreshold falls
// back to the per-session duration cap.
func NewSessionEngine(sessions domain.SessionRepository, log *ServiceLogService, clock domain.Clock, orphanThreshold time.Duration) *SessionEngine {
	if orphanThreshold <= 0 {
		orphanThreshold = time.Duration(log.Limits().MaxSessionMinutes) * time.Minute
	}
	return &SessionEngine{
		sessions:        sessions,
		log:             log,
		clock:           clock,
		orphanThreshold: orphanThreshold,
	}
}

// Subscribe registers a listener for session lifecycle events. Listeners
// are invoked synchronously on the mutating goroutine.
func (e *SessionEngine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *SessionEngine) notify(ev Event) {
	e.mu.Lock()
	listeners := make([]func(Event), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Start begins a new active session for the worker. If the worker already
// holds an unfinished session it is completed first (auto-stop), so at most
// one unfinished session per worker can ever exist.
func (e *SessionEngine) Start(ctx context.Context, contactID, workerID int64) (*domain.Session, error) {
	now := e.clock.Now()

	open, err := e.sessions.ListUnfinishedByWorker(ctx, workerID)
	if err != nil {
		// A failed read degrades to "no open sessions": starting must stay
		// available even when existing records cannot be loaded.
		slog.Error("load unfinished sessions", "worker", workerID, "error", err)
		open = nil
	}
	for i := range open {
		s := &open[i]
		if err := e.complete(ctx, s, now, CategoryAutoStopped, false,
			"Automatically stopped when a new session was started"); err != nil {
			return nil, err
		}
		e.notify(Event{Type: EventSessionAutoStopped, Session: s})
	}

	session := &domain.Session{
		ID:             uuid.NewString(),
		ContactID:      contactID,
		WorkerID:       workerID,
		Status:         domain.SessionStatusActive,
		StartedAt:      now,
		ServiceDate:    now.Format(dateLayout),
		ServiceHour:    now.Hour(),
		LastActivityAt: now,
	}

	if err := e.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	e.notify(Event{Type: EventSessionStarted, Session: session})
	return session, nil
}

// GetByID returns a session by id.
func (e *SessionEngine) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return e.sessions.GetByID(ctx, id)
}

// ListAll returns every session, newest first.
func (e *SessionEngine) ListAll(ctx context.Context) ([]domain.Session, error) {
	return e.sessions.ListAll(ctx)
}

// ActiveForWorker returns the worker's unfinished session, or nil.
func (e *SessionEngine) ActiveForWorker(ctx context.Context, workerID int64) (*domain.Session, error) {
	open, err := e.sessions.ListUnfinishedByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

// Pause transitions an active session to paused. Any other starting state
// is an idempotent no-op returning the unchanged record.
func (e *SessionEngine) Pause(ctx context.Context, id string) (*domain.Session, error) {
	session, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusActive {
		return session, nil
	}

	session.Status = domain.SessionStatusPaused
	session.LastActivityAt = e.clock.Now()
	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("pause session: %w", err)
	}
	return session, nil
}

// Resume transitions a paused session back to active. Any other starting
// state is an idempotent no-op.
func (e *SessionEngine) Resume(ctx context.Context, id string) (*domain.Session, error) {
	session, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusPaused {
		return session, nil
	}

	session.Status = domain.SessionStatusActive
	session.LastActivityAt = e.clock.Now()
	if err := e.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	return session, nil
}

// End completes a session from any non-completed state, synthesizing a
// "Timer Session" entry when the rounded duration is positive. Ending an
// already-completed session is an idempotent no-op.
func (e *SessionEngine) End(ctx context.Context, id string) (*domain.Session, error) {
	session, err := e.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionStatusCompleted {
		return session, nil
	}

	if err := e.complete(ctx, session, e.clock.Now(), CategoryTimerSession, false, ""); err != nil {
		return nil, err
	}
	e.notify(Event{Type: EventSessionEnded, Session: session})
	return session, nil
}

// ForceCompleteAll completes every unfinished session, optionally scoped to
// one worker (workerID 0 means all workers). Operator escape hatch; never
// invoked automatically.
func (e *SessionEngine) ForceCompleteAll(ctx context.Context, workerID int64) ([]domain.Session, error) {
	var (
		open []domain.Session
		err  error
	)
	if workerID != 0 {
		open, err = e.sessions.ListUnfinishedByWorker(ctx, workerID)
	} else {
		open, err = e.sessions.ListUnfinished(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list unfinished sessions: %w", err)
	}

	now := e.clock.Now()
	for i := range open {
		if err := e.complete(ctx, &open[i], now, CategoryForceCompleted, false,
			"Completed by an operator"); err != nil {
			return nil, err
		}
	}

	if len(open) > 0 {
		e.notify(Event{Type: EventSessionsForceCompleted, Sessions: open})
	}
	return open, nil
}

// RecoverOrphans completes every active session older than the orphan
// threshold. With no heartbeat channel, "orphaned" means "active longer
// than any legitimate single session could be"; the recovered duration is
// capped at the per-session limit rather than discarded. Idempotent: a
// second sweep at the same instant finds nothing.
func (e *SessionEngine) RecoverOrphans(ctx context.Context) ([]domain.Session, error) {
	now := e.clock.Now()
	cutoff := now.Add(-e.orphanThreshold)

	orphans, err := e.sessions.ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list orphan candidates: %w", err)
	}

	for i := range orphans {
		s := &orphans[i]
		if err := e.complete(ctx, s, now, CategoryRecovered, true,
			"Recovered from an abandoned session; duration capped at the per-session limit"); err != nil {
			return nil, err
		}
		slog.Info("recovered orphaned session",
			"session", s.ID, "worker", s.WorkerID, "started_at", s.StartedAt)
	}

	if len(orphans) > 0 {
		e.notify(Event{Type: EventSessionsRecovered, Sessions: orphans})
	}
	return orphans, nil
}

// complete is the single terminating transition. It computes the duration,
// persists the completed session, and synthesizes the service log entry.
// Entry rejection never blocks completion: the session ledger is
// authoritative for "work happened" even when the minutes are not billable.
func (e *SessionEngine) complete(ctx context.Context, s *domain.Session, now time.Time, category string, capDuration bool, description string) error {
	seconds := int(now.Sub(s.StartedAt) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if capDuration {
		if maxSeconds := e.log.Limits().MaxSessionMinutes * 60; seconds > maxSeconds {
			seconds = maxSeconds
		}
	}

	ended := now
	s.Status = domain.SessionStatusCompleted
	s.EndedAt = &ended
	s.DurationSeconds = &seconds
	s.LastActivityAt = now

	if err := e.sessions.Update(ctx, s); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	// Round half-up to whole minutes; zero-minute completions log nothing.
	minutes := (seconds + 30) / 60
	if minutes > 0 {
		_, err := e.log.Add(ctx, NewEntry{
			ContactID:       s.ContactID,
			WorkerID:        s.WorkerID,
			Date:            s.ServiceDate,
			DurationMinutes: minutes,
			Category:        category,
			Description:     description,
		})
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				slog.Warn("service entry rejected for completed session",
					"session", s.ID, "reason", err)
			} else {
				slog.Error("write service entry for completed session",
					"session", s.ID, "error", err)
			}
		}
	}

	return nil
}
