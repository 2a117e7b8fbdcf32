package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	id, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, id, Message{Role: RoleUser, Content: "hello"}))
	require.NoError(t, store.Append(ctx, id, Message{Role: RoleAssistant, Content: "hi"}))

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.False(t, history[0].Timestamp.IsZero())
}

func TestMemoryStore_FIFOTrim(t *testing.T) {
	ctx := context.Background()
	limits := DefaultLimits()
	store := NewMemoryStore(limits)

	id, err := store.Create(ctx)
	require.NoError(t, err)

	total := limits.MaxMessages + 5
	for i := 0; i < total; i++ {
		msg := Message{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)}
		require.NoError(t, store.Append(ctx, id, msg))
	}

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, limits.MaxMessages)

	// Oldest five are gone; order of the rest is preserved.
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("msg-%d", i+5), msg.Content)
	}
}

func TestMemoryStore_Window(t *testing.T) {
	ctx := context.Background()
	limits := DefaultLimits()
	store := NewMemoryStore(limits)

	id, err := store.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		require.NoError(t, store.Append(ctx, id, Message{Role: RoleUser, Content: fmt.Sprintf("msg-%d", i)}))
	}

	window, err := store.Window(ctx, id)
	require.NoError(t, err)
	require.Len(t, window, limits.ContextWindow)
	assert.Equal(t, "msg-4", window[0].Content)
	assert.Equal(t, "msg-11", window[len(window)-1].Content)
}

func TestMemoryStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	err := store.Append(ctx, "nope", Message{Role: RoleUser, Content: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.History(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "nope"), ErrSessionNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	now := time.Now()
	store.now = func() time.Time { return now }

	id, err := store.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, id, Message{Role: RoleUser, Content: "hello"}))

	// Advance past the idle timeout: the session is gone on next lookup
	// and no longer counted as active.
	now = now.Add(25 * time.Hour)

	_, err = store.History(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ActiveSessions)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	now := time.Now()
	store.now = func() time.Time { return now }

	stale, err := store.Create(ctx)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	fresh, err := store.Create(ctx)
	require.NoError(t, err)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.History(ctx, stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.History(ctx, fresh)
	assert.NoError(t, err)
}

func TestMemoryStore_SweepDuringAppendLosesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	now := time.Now()
	store.now = func() time.Time { return now }

	id, err := store.Create(ctx)
	require.NoError(t, err)

	// An in-flight Append resolves the session first, then takes its
	// lock. Replay that interleaving with a sweep landing in between.
	sess, err := store.get(id)
	require.NoError(t, err)

	now = now.Add(25 * time.Hour)
	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	err = store.append(sess, Message{Role: RoleUser, Content: "hello"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Empty(t, sess.messages, "a swept session must not absorb writes")
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())

	a, err := store.Create(ctx)
	require.NoError(t, err)
	b, err := store.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, a, Message{Role: RoleUser, Content: "1"}))
	require.NoError(t, store.Append(ctx, a, Message{Role: RoleAssistant, Content: "2"}))
	require.NoError(t, store.Append(ctx, b, Message{Role: RoleUser, Content: "3"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 3, stats.TotalMessages)
	require.NotNil(t, stats.OldestSession)
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Limits{MaxMessages: 1000, ContextWindow: 8, IdleTimeout: time.Hour})

	id, err := store.Create(ctx)
	require.NoError(t, err)

	const workers = 10
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				msg := Message{Role: RoleUser, Content: fmt.Sprintf("w%d-%d", w, i)}
				if err := store.Append(ctx, id, msg); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	history, err := store.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, workers*perWorker, "no appends may be lost")
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultLimits())
	require.NoError(t, store.Close())

	_, err := store.Create(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Stats(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
