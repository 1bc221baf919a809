package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

func testSession(id string, contactID, workerID int64, startedAt time.Time) *domain.Session {
	return &domain.Session{
		ID:             id,
		ContactID:      contactID,
		WorkerID:       workerID,
		Status:         domain.SessionStatusActive,
		StartedAt:      startedAt,
		ServiceDate:    startedAt.Format("2006-01-02"),
		ServiceHour:    startedAt.Hour(),
		LastActivityAt: startedAt,
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, contactID := seedWorkerAndContact(t, db)

	started := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	session := testSession("s1", contactID, workerID, started)
	if err := db.Sessions().Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := db.Sessions().GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ContactID != contactID || got.WorkerID != workerID {
		t.Errorf("ownership mismatch: %+v", got)
	}
	if got.Status != domain.SessionStatusActive {
		t.Errorf("expected active, got %q", got.Status)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("expected started at %v, got %v", started, got.StartedAt)
	}
	if got.ServiceDate != "2026-03-10" || got.ServiceHour != 9 {
		t.Errorf("service date/hour mismatch: %s / %d", got.ServiceDate, got.ServiceHour)
	}
	// Open sessions carry no end state.
	if got.EndedAt != nil || got.DurationSeconds != nil {
		t.Errorf("expected nil end state, got %v / %v", got.EndedAt, got.DurationSeconds)
	}
}

func TestSessionGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Sessions().GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionUpdateToCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, contactID := seedWorkerAndContact(t, db)

	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := testSession("s1", contactID, workerID, started)
	if err := db.Sessions().Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ended := started.Add(25 * time.Minute)
	seconds := 1500
	session.Status = domain.SessionStatusCompleted
	session.EndedAt = &ended
	session.DurationSeconds = &seconds
	session.LastActivityAt = ended
	if err := db.Sessions().Update(ctx, session); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := db.Sessions().GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.SessionStatusCompleted {
		t.Errorf("expected completed, got %q", got.Status)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("expected ended at %v, got %v", ended, got.EndedAt)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 1500 {
		t.Errorf("expected duration 1500s, got %v", got.DurationSeconds)
	}
}

func TestSessionUpdateNotFound(t *testing.T) {
	db := newTestDB(t)
	workerID, contactID := seedWorkerAndContact(t, db)

	ghost := testSession("ghost", contactID, workerID, time.Now().UTC())
	err := db.Sessions().Update(context.Background(), ghost)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionListUnfinishedByWorker(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, contactID := seedWorkerAndContact(t, db)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	active := testSession("active", contactID, workerID, base)
	paused := testSession("paused", contactID, workerID, base.Add(time.Hour))
	paused.Status = domain.SessionStatusPaused
	done := testSession("done", contactID, workerID, base.Add(2*time.Hour))
	done.Status = domain.SessionStatusCompleted

	for _, s := range []*domain.Session{active, paused, done} {
		if err := db.Sessions().Create(ctx, s); err != nil {
			t.Fatalf("Create %s failed: %v", s.ID, err)
		}
	}

	open, err := db.Sessions().ListUnfinishedByWorker(ctx, workerID)
	if err != nil {
		t.Fatalf("ListUnfinishedByWorker failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 unfinished sessions, got %d", len(open))
	}
	// Ordered by start time.
	if open[0].ID != "active" || open[1].ID != "paused" {
		t.Errorf("unexpected order: %s, %s", open[0].ID, open[1].ID)
	}

	none, err := db.Sessions().ListUnfinishedByWorker(ctx, workerID+1)
	if err != nil {
		t.Fatalf("ListUnfinishedByWorker failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no sessions for another worker, got %d", len(none))
	}
}

func TestSessionListActiveStartedBefore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, contactID := seedWorkerAndContact(t, db)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	old := testSession("old", contactID, workerID, base)
	recent := testSession("recent", contactID, workerID, base.Add(4*time.Hour))
	oldPaused := testSession("old-paused", contactID, workerID, base)
	oldPaused.Status = domain.SessionStatusPaused

	for _, s := range []*domain.Session{old, recent, oldPaused} {
		if err := db.Sessions().Create(ctx, s); err != nil {
			t.Fatalf("Create %s failed: %v", s.ID, err)
		}
	}

	got, err := db.Sessions().ListActiveStartedBefore(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListActiveStartedBefore failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "old" {
		t.Errorf("expected only the old active session, got %v", got)
	}
}

func TestSessionStampActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, contactID := seedWorkerAndContact(t, db)

	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := testSession("s1", contactID, workerID, started)
	if err := db.Sessions().Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stamp := started.Add(10 * time.Minute)
	if err := db.Sessions().StampActivity(ctx, "s1", stamp); err != nil {
		t.Fatalf("StampActivity failed: %v", err)
	}

	got, _ := db.Sessions().GetByID(ctx, "s1")
	if !got.LastActivityAt.Equal(stamp) {
		t.Errorf("expected last activity %v, got %v", stamp, got.LastActivityAt)
	}
	// Stamping must leave the lifecycle fields untouched.
	if got.Status != domain.SessionStatusActive || got.EndedAt != nil {
		t.Errorf("stamp changed lifecycle state: %+v", got)
	}
}
