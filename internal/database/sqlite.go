package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plantmanager/internal/database/migrations"
	"plantmanager/internal/notify"
	"plantmanager/internal/plant"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase keeps reminder values and the notification outbox in a
// single SQLite file. It implements plant.KVStore and notify.Repository.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path and applies pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection.
// The caller is responsible for ensuring the schema is in place.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite connection.
// The pool is limited to one connection: in-memory databases are per
// connection and SQLite serializes writers anyway.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Key-value operations

func (s *SQLiteDatabase) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteDatabase) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteDatabase) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}

// Notification operations

func (s *SQLiteDatabase) InsertNotification(ctx context.Context, e *notify.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, plant_id, title, message, deliver_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.PlantID, e.Title, e.Message, e.DeliverAt.UnixNano(), e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) CancelNotifications(ctx context.Context, plantID string, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET canceled_at = ?
		WHERE plant_id = ? AND delivered_at IS NULL AND canceled_at IS NULL`,
		at.UnixNano(), plantID)
	if err != nil {
		return 0, fmt.Errorf("cancelling notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancelling notifications: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteDatabase) DueNotifications(ctx context.Context, now time.Time) ([]*notify.Entry, error) {
	return s.queryNotifications(ctx, `
		SELECT id, plant_id, title, message, deliver_at, created_at FROM notifications
		WHERE delivered_at IS NULL AND canceled_at IS NULL AND deliver_at <= ?
		ORDER BY deliver_at, id`, now.UnixNano())
}

func (s *SQLiteDatabase) PendingNotifications(ctx context.Context) ([]*notify.Entry, error) {
	return s.queryNotifications(ctx, `
		SELECT id, plant_id, title, message, deliver_at, created_at FROM notifications
		WHERE delivered_at IS NULL AND canceled_at IS NULL
		ORDER BY deliver_at, id`)
}

func (s *SQLiteDatabase) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE notifications SET delivered_at = ? WHERE id = ?", at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("marking notification delivered: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

// queryNotifications scans pending rows; delivered_at and canceled_at are
// therefore always NULL and not selected.
func (s *SQLiteDatabase) queryNotifications(ctx context.Context, query string, args ...any) ([]*notify.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var entries []*notify.Entry
	for rows.Next() {
		var (
			e                    notify.Entry
			deliverAt, createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.PlantID, &e.Title, &e.Message, &deliverAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		e.DeliverAt = time.Unix(0, deliverAt).UTC()
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return entries, nil
}

// Path returns the database file path (empty for wrapped connections).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// ValidateSetup checks that the database answers and its schema is current.
func (s *SQLiteDatabase) ValidateSetup(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return s.CheckMigrations()
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ plant.KVStore     = (*SQLiteDatabase)(nil)
	_ notify.Repository = (*SQLiteDatabase)(nil)
)
