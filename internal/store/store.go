package store

import (
	"context"
	"time"
)

// EventKind names a session lifecycle transition.
type EventKind string

const (
	EventLogin      EventKind = "login"
	EventLogout     EventKind = "logout"
	EventDisconnect EventKind = "disconnect"
)

// SessionEvent is one audited lifecycle transition of a chat session.
// Message bodies are never recorded.
type SessionEvent struct {
	ID         int64
	SessionID  string
	Username   string
	Kind       EventKind
	RemoteAddr string
	CreatedAt  time.Time
}

// EventFilter narrows ListEvents results.
type EventFilter struct {
	// Username limits results to one identity when non-empty.
	Username string
	// Limit caps the number of events returned; zero means the store default.
	Limit int
}

// EventStore handles session audit persistence.
type EventStore interface {
	// RecordEvent persists an event and fills in its ID and CreatedAt.
	RecordEvent(ctx context.Context, ev *SessionEvent) error

	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, filter EventFilter) ([]*SessionEvent, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	EventStore

	// Close closes the underlying database connection.
	Close() error
}
