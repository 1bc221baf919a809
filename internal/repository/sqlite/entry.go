package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mferrant/casetrack/internal/domain"
)

// ServiceEntryRepository implements domain.ServiceEntryRepository using SQLite.
type ServiceEntryRepository struct {
	db *sql.DB
}

// NewServiceEntryRepository creates a new SQLite-backed ServiceEntryRepository.
func NewServiceEntryRepository(db *DB) *ServiceEntryRepository {
	return &ServiceEntryRepository{db: db.SqlDB}
}

const entryColumns = `id, contact_id, worker_id, date, duration_minutes,
	 category, description, created_at, updated_at`

func (r *ServiceEntryRepository) Create(ctx context.Context, e *domain.ServiceEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO service_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ContactID, e.WorkerID, e.Date, e.DurationMinutes,
		e.Category, e.Description, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert service entry: %w", err)
	}
	return nil
}

func (r *ServiceEntryRepository) GetByID(ctx context.Context, id string) (*domain.ServiceEntry, error) {
	e := &domain.ServiceEntry{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM service_entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.ContactID, &e.WorkerID, &e.Date, &e.DurationMinutes,
		&e.Category, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get service entry: %w", err)
	}
	return e, nil
}

func (r *ServiceEntryRepository) Update(ctx context.Context, e *domain.ServiceEntry) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE service_entries SET contact_id = ?, worker_id = ?, date = ?,
		 duration_minutes = ?, category = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		e.ContactID, e.WorkerID, e.Date, e.DurationMinutes,
		e.Category, e.Description, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update service entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ServiceEntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM service_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete service entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ServiceEntryRepository) ListAll(ctx context.Context) ([]domain.ServiceEntry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM service_entries ORDER BY date DESC, created_at DESC`)
}

func (r *ServiceEntryRepository) ListByContact(ctx context.Context, contactID int64) ([]domain.ServiceEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM service_entries
		 WHERE contact_id = ? ORDER BY date DESC, created_at DESC`, contactID)
}

func (r *ServiceEntryRepository) ListByWorker(ctx context.Context, workerID int64) ([]domain.ServiceEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM service_entries
		 WHERE worker_id = ? ORDER BY date DESC, created_at DESC`, workerID)
}

func (r *ServiceEntryRepository) ListByDate(ctx context.Context, date string) ([]domain.ServiceEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM service_entries
		 WHERE date = ? ORDER BY created_at DESC`, date)
}

func (r *ServiceEntryRepository) ListByContactAndWorker(ctx context.Context, contactID, workerID int64) ([]domain.ServiceEntry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM service_entries
		 WHERE contact_id = ? AND worker_id = ? ORDER BY date DESC, created_at DESC`, contactID, workerID)
}

func (r *ServiceEntryRepository) SumMinutesForDay(ctx context.Context, contactID, workerID int64, date string, excludeID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM service_entries
		 WHERE contact_id = ? AND worker_id = ? AND date = ? AND id != ?`,
		contactID, workerID, date, excludeID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum minutes for day: %w", err)
	}
	return total, nil
}

// list runs an entry query, skipping and logging unreadable rows so a single
// damaged record cannot block the rest of the log.
func (r *ServiceEntryRepository) list(ctx context.Context, query string, args ...any) ([]domain.ServiceEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list service entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ServiceEntry
	for rows.Next() {
		var e domain.ServiceEntry
		if err := rows.Scan(&e.ID, &e.ContactID, &e.WorkerID, &e.Date, &e.DurationMinutes,
			&e.Category, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			slog.Error("skipping unreadable service entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
