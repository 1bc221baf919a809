package domain

import (
	"context"
	"time"
)

// Contact is the minimal view of a CRM contact the tracking core needs:
// a display name for report decoration and an owning worker for visibility.
type Contact struct {
	ID               int64
	Name             string
	AssignedWorkerID int64
	CreatedAt        time.Time
}

type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	GetByID(ctx context.Context, id int64) (*Contact, error)
	ListAll(ctx context.Context) ([]Contact, error)
}
