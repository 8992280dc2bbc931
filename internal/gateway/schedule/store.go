// Package schedule persists scheduled SMS messages. Unlike session state,
// schedules must survive a restart: a user who asks for a reminder tomorrow
// expects it even if the gateway was redeployed overnight.
package schedule

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Message statuses.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// ErrNotFound is returned when a schedule ID does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("schedule: message not found")

// Message is one scheduled SMS.
type Message struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Recipient   string    `json:"recipient"`
	ContactName string    `json:"contact_name,omitempty"`
	Body        string    `json:"message_content"`
	When        string    `json:"when"`
	Recurrence  string    `json:"recurrence,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps the schedules database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite is single-writer by design. Keep a single shared connection so
	// concurrent callers are serialized by database/sql instead of fighting
	// for write locks across multiple underlying connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new scheduled message and returns it with its generated ID.
func (s *Store) Create(ctx context.Context, userID, recipient, contactName, body, when, recurrence string) (Message, error) {
	msg := Message{
		ID:          uuid.New().String(),
		UserID:      userID,
		Recipient:   recipient,
		ContactName: contactName,
		Body:        body,
		When:        when,
		Recurrence:  recurrence,
		Status:      StatusScheduled,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_messages
			(id, user_id, recipient, contact_name, body, send_when, recurrence, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.Recipient, msg.ContactName, msg.Body,
		msg.When, msg.Recurrence, msg.Status, msg.CreatedAt,
	)
	if err != nil {
		return Message{}, fmt.Errorf("failed to insert scheduled message: %w", err)
	}
	return msg, nil
}

// ListPending returns the user's scheduled (not cancelled) messages, newest
// first.
func (s *Store) ListPending(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recipient, contact_name, body, send_when, recurrence, status, created_at
		FROM scheduled_messages
		WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC`,
		userID, StatusScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Recipient, &m.ContactName,
			&m.Body, &m.When, &m.Recurrence, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Cancel marks a scheduled message as cancelled. Returns ErrNotFound when the
// ID does not exist, is not the user's, or is already cancelled.
func (s *Store) Cancel(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_messages
		SET status = ?, cancelled_at = ?
		WHERE id = ? AND user_id = ? AND status = ?`,
		StatusCancelled, time.Now().UTC(), id, userID, StatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel scheduled message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// runMigrations applies pending migration files in version order.
func (s *Store) runMigrations() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		description := strings.TrimSuffix(parts[1], ".sql")

		content, err := migrationsFS.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", version, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			version, time.Now(), description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}

		slog.Info("applied migration", "version", fmt.Sprintf("%04d", version), "description", description)
	}

	return nil
}
