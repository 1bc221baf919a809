package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

// ContactRepository implements domain.ContactRepository using SQLite.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new SQLite-backed ContactRepository.
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db.SqlDB}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (name, assigned_worker_id, created_at) VALUES (?, ?, ?)`,
		contact.Name, contact.AssignedWorkerID, now,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	contact.ID = id
	contact.CreatedAt = now
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	contact := &domain.Contact{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, assigned_worker_id, created_at FROM contacts WHERE id = ?`, id,
	).Scan(&contact.ID, &contact.Name, &contact.AssignedWorkerID, &contact.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query contact: %w", err)
	}
	return contact, nil
}

func (r *ContactRepository) ListAll(ctx context.Context) ([]domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, assigned_worker_id, created_at FROM contacts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.AssignedWorkerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
