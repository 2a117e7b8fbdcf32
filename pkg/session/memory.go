package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memSession carries its own lock so concurrent appends to different
// sessions never contend with each other.
type memSession struct {
	mu           sync.Mutex
	createdAt    time.Time
	lastActivity time.Time
	messages     []Message
	// removed is set under mu when the session leaves the store, so a
	// caller holding a stale pointer cannot write into an orphan.
	removed bool
}

// MemoryStore is an in-process Store. Expiry is enforced lazily on every
// lookup and in bulk by Sweep.
type MemoryStore struct {
	limits Limits

	mu       sync.RWMutex
	sessions map[string]*memSession
	closed   bool

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(limits Limits) *MemoryStore {
	return &MemoryStore{
		limits:   limits,
		sessions: make(map[string]*memSession),
		now:      time.Now,
	}
}

// Create starts a new empty session.
func (s *MemoryStore) Create(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}
	id := uuid.NewString()
	now := s.now()
	s.sessions[id] = &memSession{createdAt: now, lastActivity: now}
	return id, nil
}

// get returns a live session or ErrSessionNotFound, removing it when
// expired. The expiry check happens under the session lock so it cannot
// race an in-progress append.
func (s *MemoryStore) get(sessionID string) (*memSession, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.removed {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	expired := s.now().Sub(sess.lastActivity) > s.limits.IdleTimeout
	sess.mu.Unlock()
	if expired {
		s.mu.Lock()
		sess.mu.Lock()
		sess.removed = true
		sess.mu.Unlock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Append adds a message, trimming the oldest beyond the maximum.
func (s *MemoryStore) Append(_ context.Context, sessionID string, msg Message) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	return s.append(sess, msg)
}

// append re-checks membership under the session lock: a sweep can remove
// the session between the caller's get and the lock acquisition here, and
// a message written to that orphan would be silently lost.
func (s *MemoryStore) append(sess *memSession, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return ErrSessionNotFound
	}
	sess.messages = append(sess.messages, msg)
	if over := len(sess.messages) - s.limits.MaxMessages; over > 0 {
		sess.messages = append([]Message(nil), sess.messages[over:]...)
	}
	sess.lastActivity = s.now()
	return nil
}

// History returns all retained messages in order.
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]Message, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.removed {
		return nil, ErrSessionNotFound
	}
	return append([]Message(nil), sess.messages...), nil
}

// Window returns the most recent context-window messages in order.
func (s *MemoryStore) Window(ctx context.Context, sessionID string) ([]Message, error) {
	history, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(history) > s.limits.ContextWindow {
		history = history[len(history)-s.limits.ContextWindow:]
	}
	return history, nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.removed = true
	sess.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Stats summarizes the live sessions, skipping expired ones.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrStoreClosed
	}

	var stats Stats
	now := s.now()
	for _, sess := range s.sessions {
		sess.mu.Lock()
		live := now.Sub(sess.lastActivity) <= s.limits.IdleTimeout
		created := sess.createdAt
		count := len(sess.messages)
		sess.mu.Unlock()
		if !live {
			continue
		}
		stats.ActiveSessions++
		stats.TotalMessages += count
		if stats.OldestSession == nil || created.Before(*stats.OldestSession) {
			c := created
			stats.OldestSession = &c
		}
	}
	return stats, nil
}

// Sweep removes every expired session.
func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	now := s.now()
	var removed int
	for id, sess := range s.sessions {
		sess.mu.Lock()
		expired := now.Sub(sess.lastActivity) > s.limits.IdleTimeout
		if expired {
			sess.removed = true
		}
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Close marks the store closed; subsequent calls fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}
