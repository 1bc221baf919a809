package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mferrant/casetrack/internal/domain"
	"github.com/mferrant/casetrack/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database handle and provides repository accessors.
// It implements domain.Database.
type DB struct {
	SqlDB *sql.DB

	users    *UserRepository
	contacts *ContactRepository
	sessions *SessionRepository
	entries  *ServiceEntryRepository
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign key enforcement.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := sqlDB.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection serializes every read-compute-write cycle, so a
	// recovery sweep and a user-initiated end cannot interleave mid-write.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = NewUserRepository(db)
	db.contacts = NewContactRepository(db)
	db.sessions = NewSessionRepository(db)
	db.entries = NewServiceEntryRepository(db)
	return db, nil
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, db.SqlDB)
}

// Close closes the underlying database handle.
func (db *DB) Close() error {
	return db.SqlDB.Close()
}

// Users returns the user repository.
func (db *DB) Users() domain.UserRepository { return db.users }

// Contacts returns the contact repository.
func (db *DB) Contacts() domain.ContactRepository { return db.contacts }

// Sessions returns the session repository.
func (db *DB) Sessions() domain.SessionRepository { return db.sessions }

// Entries returns the service entry repository.
func (db *DB) Entries() domain.ServiceEntryRepository { return db.entries }

// isUniqueConstraintError reports whether err is a SQLite unique constraint
// violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
