package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

func newTestLog() (*ServiceLogService, *fakeEntryRepo, *fakeClock) {
	clock := newFakeClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	entries := newFakeEntryRepo()
	return NewServiceLogService(entries, clock, DefaultLogLimits()), entries, clock
}

func validEntry() NewEntry {
	return NewEntry{
		ContactID:       1,
		WorkerID:        7,
		Date:            "2026-03-10",
		DurationMinutes: 60,
		Category:        "Home Visit",
		Description:     "Weekly check-in",
	}
}

func TestAddAssignsIDAndTimestamps(t *testing.T) {
	log, _, clock := newTestLog()

	entry, err := log.Add(context.Background(), validEntry())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected a generated entry id")
	}
	if !entry.CreatedAt.Equal(clock.Now()) || !entry.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("expected timestamps %v, got created %v updated %v",
			clock.Now(), entry.CreatedAt, entry.UpdatedAt)
	}
}

func TestAddEnforcesSessionCap(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.DurationMinutes = 480
	if _, err := log.Add(ctx, in); err != nil {
		t.Errorf("480 minutes should be accepted at the cap: %v", err)
	}

	in = validEntry()
	in.ContactID = 2 // avoid the daily cap
	in.DurationMinutes = 481
	_, err := log.Add(ctx, in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("481 minutes should fail validation, got %v", err)
	}
}

func TestAddEnforcesDailyCap(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.DurationMinutes = 480
	if _, err := log.Add(ctx, in); err != nil {
		t.Fatalf("first entry failed: %v", err)
	}
	if _, err := log.Add(ctx, in); err != nil {
		t.Fatalf("second entry failed: %v", err)
	}

	// 960 minutes already logged for this contact/worker/date.
	in.DurationMinutes = 1
	_, err := log.Add(ctx, in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected daily cap rejection, got %v", err)
	}

	// The cap is per contact: a different contact is unaffected.
	in.ContactID = 2
	if _, err := log.Add(ctx, in); err != nil {
		t.Errorf("different contact should not share the daily cap: %v", err)
	}
}

func TestAddRejectsNonPositiveDuration(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.DurationMinutes = 0
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected zero duration rejection, got %v", err)
	}

	in.DurationMinutes = -5
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected negative duration rejection, got %v", err)
	}
}

func TestChatEntriesExemptFromDurationRules(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	// Zero-duration chat is fine.
	in := validEntry()
	in.Category = "chat" // category match is case-insensitive
	in.DurationMinutes = 0
	if _, err := log.Add(ctx, in); err != nil {
		t.Errorf("zero-duration chat should be accepted: %v", err)
	}

	// Chat bypasses the daily cap even when the day is full.
	full := validEntry()
	full.DurationMinutes = 480
	log.Add(ctx, full)
	log.Add(ctx, full)

	in = validEntry()
	in.Category = CategoryChat
	in.DurationMinutes = 30
	if _, err := log.Add(ctx, in); err != nil {
		t.Errorf("chat should bypass the daily cap: %v", err)
	}
}

func TestAddEnforcesDateBounds(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.Date = "2026-03-11" // tomorrow
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected future date rejection, got %v", err)
	}

	in.Date = "2025-03-09" // 366 days back
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected retention horizon rejection, got %v", err)
	}

	in.Date = "2025-03-10" // exactly the horizon
	if _, err := log.Add(ctx, in); err != nil {
		t.Errorf("the horizon date itself should be accepted: %v", err)
	}

	in.Date = "03/10/2026"
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected malformed date rejection, got %v", err)
	}
}

func TestAddRequiresContactAndWorker(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.ContactID = 0
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected missing contact rejection, got %v", err)
	}

	in = validEntry()
	in.WorkerID = 0
	if _, err := log.Add(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected missing worker rejection, got %v", err)
	}
}

func TestUpdateRevalidatesFullRecord(t *testing.T) {
	log, _, clock := newTestLog()
	ctx := context.Background()

	entry, err := log.Add(ctx, validEntry())
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	over := 481
	_, err = log.Update(ctx, entry.ID, EntryPatch{DurationMinutes: &over})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected cap rejection on update, got %v", err)
	}

	clock.Advance(time.Minute)
	minutes := 120
	desc := "Extended visit"
	updated, err := log.Update(ctx, entry.ID, EntryPatch{DurationMinutes: &minutes, Description: &desc})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.DurationMinutes != 120 || updated.Description != "Extended visit" {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Category != entry.Category || updated.Date != entry.Date {
		t.Errorf("unpatched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestUpdateExcludesSelfFromDailyCap(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	in := validEntry()
	in.DurationMinutes = 480
	entry, err := log.Add(ctx, in)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Re-saving the same duration must not double-count the entry against
	// its own day.
	same := 480
	if _, err := log.Update(ctx, entry.ID, EntryPatch{DurationMinutes: &same}); err != nil {
		t.Errorf("updating an entry counted it against itself: %v", err)
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	log, _, _ := newTestLog()
	ctx := context.Background()

	entry, _ := log.Add(ctx, validEntry())
	if err := log.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := log.GetByID(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := log.Delete(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
