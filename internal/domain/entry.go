package domain

import (
	"context"
	"time"
)

// ServiceEntry is a finalized, billable record of minutes served to a
// contact. Entries are produced by the session engine on completion or
// created directly by manual logging; they deliberately carry no reference
// back to an originating session.
type ServiceEntry struct {
	ID              string
	ContactID       int64
	WorkerID        int64
	Date            string // calendar date, "2006-01-02"
	DurationMinutes int
	Category        string
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ServiceEntryRepository interface {
	Create(ctx context.Context, entry *ServiceEntry) error
	GetByID(ctx context.Context, id string) (*ServiceEntry, error)
	Update(ctx context.Context, entry *ServiceEntry) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]ServiceEntry, error)
	ListByContact(ctx context.Context, contactID int64) ([]ServiceEntry, error)
	ListByWorker(ctx context.Context, workerID int64) ([]ServiceEntry, error)
	ListByDate(ctx context.Context, date string) ([]ServiceEntry, error)
	ListByContactAndWorker(ctx context.Context, contactID, workerID int64) ([]ServiceEntry, error)
	// SumMinutesForDay returns the total minutes already logged by one worker
	// for one contact on one calendar date, excluding the entry with
	// excludeID (pass "" when adding a new entry).
	SumMinutesForDay(ctx context.Context, contactID, workerID int64, date string, excludeID string) (int, error)
}
