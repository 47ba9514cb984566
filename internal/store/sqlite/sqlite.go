package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/linechat-server/internal/store"
)

const defaultListLimit = 100

// Schema creates the session audit table. Safe to apply more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	username    TEXT NOT NULL,
	kind        TEXT NOT NULL,
	remote_addr TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_session_events_username ON session_events(username, id DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps ":memory:" on one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordEvent persists a session lifecycle event and fills in ID and CreatedAt.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev *store.SessionEvent) error {
	query := `
		INSERT INTO session_events (session_id, username, kind, remote_addr)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, ev.SessionID, ev.Username, string(ev.Kind), ev.RemoteAddr)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT created_at FROM session_events WHERE id = ?`, id).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("query session event: %w", err)
	}
	ev.ID = id
	return nil
}

// ListEvents returns events newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, filter store.EventFilter) ([]*store.SessionEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, session_id, username, kind, remote_addr, created_at
		FROM session_events
	`
	args := make([]any, 0, 2)
	if filter.Username != "" {
		query += ` WHERE username = ?`
		args = append(args, filter.Username)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	events := make([]*store.SessionEvent, 0)
	for rows.Next() {
		var (
			ev   store.SessionEvent
			kind string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Username, &kind, &ev.RemoteAddr, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		ev.Kind = store.EventKind(kind)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}

	return events, nil
}
