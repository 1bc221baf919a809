package domain

import (
	"context"
	"time"
)

// Session is one run of a worker timing service to a contact. Sessions are
// never deleted; completed sessions are retained as the historical record of
// work performed, independent of the billable service log.
type Session struct {
	ID              string
	ContactID       int64
	WorkerID        int64
	Status          string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds *int
	ServiceDate     string // calendar date derived from StartedAt (UTC), "2006-01-02"
	ServiceHour     int    // 0-23, informational
	LastActivityAt  time.Time
}

const (
	SessionStatusActive    = "active"
	SessionStatusPaused    = "paused"
	SessionStatusCompleted = "completed"
)

// Unfinished reports whether the session still occupies the worker's timer.
func (s *Session) Unfinished() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	ListAll(ctx context.Context) ([]Session, error)
	ListUnfinished(ctx context.Context) ([]Session, error)
	ListUnfinishedByWorker(ctx context.Context, workerID int64) ([]Session, error)
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]Session, error)
	StampActivity(ctx context.Context, id string, at time.Time) error
}
