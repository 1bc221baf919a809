package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mferrant/casetrack/internal/domain"
)

func TestContactCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, _ := seedWorkerAndContact(t, db)

	contact := &domain.Contact{Name: "Jordan Reyes", AssignedWorkerID: workerID}
	if err := db.Contacts().Create(ctx, contact); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := db.Contacts().GetByID(ctx, contact.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Jordan Reyes" || got.AssignedWorkerID != workerID {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestContactListAllSortedByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	workerID, _ := seedWorkerAndContact(t, db)

	for _, name := range []string{"Zoe", "Ben"} {
		if err := db.Contacts().Create(ctx, &domain.Contact{Name: name, AssignedWorkerID: workerID}); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	contacts, err := db.Contacts().ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	// Seed contact plus the two above, ordered by name.
	if len(contacts) != 3 {
		t.Fatalf("expected 3 contacts, got %d", len(contacts))
	}
	if contacts[0].Name != "Ben" || contacts[2].Name != "Zoe" {
		t.Errorf("unexpected order: %v", contacts)
	}
}

func TestContactGetNotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Contacts().GetByID(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
