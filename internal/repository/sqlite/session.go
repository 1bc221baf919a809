package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

// SessionRepository implements domain.SessionRepository using SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed SessionRepository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db.SqlDB}
}

const sessionColumns = `id, contact_id, worker_id, status, started_at, ended_at,
	 duration_seconds, service_date, service_hour, last_activity_at`

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ContactID, s.WorkerID, s.Status, s.StartedAt, s.EndedAt,
		s.DurationSeconds, s.ServiceDate, s.ServiceHour, s.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s := &domain.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.ContactID, &s.WorkerID, &s.Status, &s.StartedAt, &s.EndedAt,
		&s.DurationSeconds, &s.ServiceDate, &s.ServiceHour, &s.LastActivityAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, ended_at = ?, duration_seconds = ?,
		 last_activity_at = ? WHERE id = ?`,
		s.Status, s.EndedAt, s.DurationSeconds, s.LastActivityAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
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

func (r *SessionRepository) ListAll(ctx context.Context) ([]domain.Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC`)
}

func (r *SessionRepository) ListUnfinished(ctx context.Context) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status IN ('active', 'paused') ORDER BY started_at`)
}

func (r *SessionRepository) ListUnfinishedByWorker(ctx context.Context, workerID int64) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE worker_id = ? AND status IN ('active', 'paused') ORDER BY started_at`, workerID)
}

func (r *SessionRepository) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status = 'active' AND started_at < ? ORDER BY started_at`, cutoff)
}

func (r *SessionRepository) StampActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("stamp session activity: %w", err)
	}
	return nil
}

// list runs a session query. Rows that fail to scan are skipped and logged
// rather than failing the whole read: a damaged record must degrade to
// missing data, not take down every caller of the store.
func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.ContactID, &s.WorkerID, &s.Status, &s.StartedAt, &s.EndedAt,
			&s.DurationSeconds, &s.ServiceDate, &s.ServiceHour, &s.LastActivityAt); err != nil {
			slog.Error("skipping unreadable session record", "error", err)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
