// Package session provides conversation session storage for the assistant.
// Sessions hold an append-only, bounded message history with idle expiry.
package session

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. Immutable once appended.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Limits bounds session growth and lifetime.
type Limits struct {
	// MaxMessages is the history cap; the oldest messages are trimmed
	// first when it is exceeded.
	MaxMessages int
	// ContextWindow is the number of most recent messages used to build
	// generation prompts. Must not exceed MaxMessages.
	ContextWindow int
	// IdleTimeout invalidates a session once no activity occurs for this
	// long.
	IdleTimeout time.Duration
}

// DefaultLimits mirrors the production configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxMessages:   20,
		ContextWindow: 8,
		IdleTimeout:   24 * time.Hour,
	}
}

// Stats summarizes the live sessions in a store.
type Stats struct {
	ActiveSessions int        `json:"active_sessions"`
	TotalMessages  int        `json:"total_messages"`
	OldestSession  *time.Time `json:"oldest_session,omitempty"`
}
