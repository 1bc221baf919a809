package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mferrant/casetrack/internal/domain"
)

const dateLayout = "2006-01-02"

// Entry categories written by the session engine, plus the chat category
// that is exempt from duration rules. Categories are free-form labels;
// these are the well-known ones.
const (
	CategoryTimerSession   = "Timer Session"
	CategoryAutoStopped    = "Timer Session (Auto-stopped)"
	CategoryRecovered      = "Timer Session (Recovered)"
	CategoryForceCompleted = "Timer Session (Force Completed)"
	CategoryChat           = "Chat"
)

// LogLimits configures service log validation.
type LogLimits struct {
	MaxSessionMinutes int // cap on a single entry's duration
	MaxDailyMinutes   int // cap on one worker's total for one contact on one date
	RetentionDays     int // oldest permitted entry date, counted back from today
}

// DefaultLogLimits returns the standard caps: 8h per session, 16h per day,
// one year of retention.
func DefaultLogLimits() LogLimits {
	return LogLimits{MaxSessionMinutes: 480, MaxDailyMinutes: 960, RetentionDays: 365}
}

// ServiceLogService owns the append-only log of billable service entries.
// All writes pass through its validation; nothing else mutates the log.
type ServiceLogService struct {
	entries domain.ServiceEntryRepository
	clock   domain.Clock
	limits  LogLimits
}

// NewServiceLogService creates a new ServiceLogService.
func NewServiceLogService(entries domain.ServiceEntryRepository, clock domain.Clock, limits LogLimits) *ServiceLogService {
	return &ServiceLogService{entries: entries, clock: clock, limits: limits}
}

// Limits returns the configured validation caps.
func (s *ServiceLogService) Limits() LogLimits { return s.limits }

// NewEntry is the caller-supplied portion of a service entry.
type NewEntry struct {
	ContactID       int64
	WorkerID        int64
	Date            string
	DurationMinutes int
	Category        string
	Description     string
}

// Add validates and stores a new service entry, assigning its id and
// timestamps. Validation failures are returned wrapped in
// domain.ErrValidation with a human-readable reason.
func (s *ServiceLogService) Add(ctx context.Context, in NewEntry) (*domain.ServiceEntry, error) {
	now := s.clock.Now()
	entry := &domain.ServiceEntry{
		ID:              uuid.NewString(),
		ContactID:       in.ContactID,
		WorkerID:        in.WorkerID,
		Date:            in.Date,
		DurationMinutes: in.DurationMinutes,
		Category:        in.Category,
		Description:     in.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.validate(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create service entry: %w", err)
	}
	return entry, nil
}

// EntryPatch holds optional updates to an existing entry. Nil fields are
// left unchanged.
type EntryPatch struct {
	Date            *string
	DurationMinutes *int
	Category        *string
	Description     *string
}

// Update applies a patch to an entry and re-validates the full resulting
// record before persisting it.
func (s *ServiceLogService) Update(ctx context.Context, id string, patch EntryPatch) (*domain.ServiceEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Date != nil {
		entry.Date = *patch.Date
	}
	if patch.DurationMinutes != nil {
		entry.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Category != nil {
		entry.Category = *patch.Category
	}
	if patch.Description != nil {
		entry.Description = *patch.Description
	}

	if err := s.validate(ctx, entry); err != nil {
		return nil, err
	}

	entry.UpdatedAt = s.clock.Now()
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update service entry: %w", err)
	}
	return entry, nil
}

// Delete removes an entry from the log.
func (s *ServiceLogService) Delete(ctx context.Context, id string) error {
	return s.entries.Delete(ctx, id)
}

// GetByID returns a single entry.
func (s *ServiceLogService) GetByID(ctx context.Context, id string) (*domain.ServiceEntry, error) {
	return s.entries.GetByID(ctx, id)
}

// ListAll returns every entry in the log.
func (s *ServiceLogService) ListAll(ctx context.Context) ([]domain.ServiceEntry, error) {
	return s.entries.ListAll(ctx)
}

// ListByContact returns a contact's entries.
func (s *ServiceLogService) ListByContact(ctx context.Context, contactID int64) ([]domain.ServiceEntry, error) {
	return s.entries.ListByContact(ctx, contactID)
}

// ListByWorker returns a worker's entries.
func (s *ServiceLogService) ListByWorker(ctx context.Context, workerID int64) ([]domain.ServiceEntry, error) {
	return s.entries.ListByWorker(ctx, workerID)
}

// ListByDate returns the entries for one calendar date.
func (s *ServiceLogService) ListByDate(ctx context.Context, date string) ([]domain.ServiceEntry, error) {
	return s.entries.ListByDate(ctx, date)
}

// ListByContactAndWorker returns one worker's entries for one contact.
func (s *ServiceLogService) ListByContactAndWorker(ctx context.Context, contactID, workerID int64) ([]domain.ServiceEntry, error) {
	return s.entries.ListByContactAndWorker(ctx, contactID, workerID)
}

// isChat reports whether the category is the duration-exempt chat label.
func isChat(category string) bool {
	return strings.EqualFold(category, CategoryChat)
}

// validate enforces the duration caps and date bounds on the full record.
func (s *ServiceLogService) validate(ctx context.Context, e *domain.ServiceEntry) error {
	if e.ContactID == 0 || e.WorkerID == 0 {
		return fmt.Errorf("%w: contact and worker are required", domain.ErrInvalidInput)
	}

	date, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD form", domain.ErrValidation)
	}

	if e.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration cannot be negative", domain.ErrValidation)
	}

	chat := isChat(e.Category)
	if !chat && e.DurationMinutes < 1 {
		return fmt.Errorf("%w: duration must be at least one minute", domain.ErrValidation)
	}

	if e.DurationMinutes > s.limits.MaxSessionMinutes {
		return fmt.Errorf("%w: duration of %d minutes exceeds the per-session cap of %d minutes",
			domain.ErrValidation, e.DurationMinutes, s.limits.MaxSessionMinutes)
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		return fmt.Errorf("%w: date cannot be in the future", domain.ErrValidation)
	}
	horizon := today.AddDate(0, 0, -s.limits.RetentionDays)
	if date.Before(horizon) {
		return fmt.Errorf("%w: date is older than the %d-day retention horizon",
			domain.ErrValidation, s.limits.RetentionDays)
	}

	if !chat {
		existing, err := s.entries.SumMinutesForDay(ctx, e.ContactID, e.WorkerID, e.Date, e.ID)
		if err != nil {
			return fmt.Errorf("sum existing minutes: %w", err)
		}
		if existing+e.DurationMinutes > s.limits.MaxDailyMinutes {
			return fmt.Errorf("%w: daily duration cap exceeded (%d + %d > %d minutes)",
				domain.ErrValidation, existing, e.DurationMinutes, s.limits.MaxDailyMinutes)
		}
	}

	return nil
}
