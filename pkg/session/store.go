package session

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Store abstracts session persistence.
// Implementations must be safe for concurrent use; appends to the same
// session must be observably atomic, and expired sessions must never be
// returned.
type Store interface {
	// Create starts a new empty session and returns its ID.
	Create(ctx context.Context) (string, error)

	// Append adds a message to a session, trimming the oldest messages
	// beyond the configured maximum and refreshing last activity.
	// Returns ErrSessionNotFound if the session is unknown or expired.
	Append(ctx context.Context, sessionID string, msg Message) error

	// History returns all retained messages of a session in order.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Window returns the most recent context-window messages in order.
	Window(ctx context.Context, sessionID string) ([]Message, error)

	// Delete removes a session. Returns ErrSessionNotFound if absent.
	Delete(ctx context.Context, sessionID string) error

	// Stats summarizes the currently active sessions.
	Stats(ctx context.Context) (Stats, error)

	// Sweep removes expired sessions and reports how many were removed.
	Sweep(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
