package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, suitable for multi-node
// deployments. Idle expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
	limits Limits

	mu     sync.RWMutex
	closed bool
}

// RedisOptions holds Redis connection configuration.
type RedisOptions struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix (default: "assistant:session:").
	Prefix string
	// PoolSize is the connection pool size (default: 10).
	PoolSize int
}

// NewRedisStore connects to Redis and returns a store.
func NewRedisStore(opts RedisOptions, limits Limits) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreFromClient(client, opts.Prefix, limits), nil
}

// NewRedisStoreFromClient wraps an existing client. Useful for testing
// with miniredis.
func NewRedisStoreFromClient(client *redis.Client, prefix string, limits Limits) *RedisStore {
	if prefix == "" {
		prefix = "assistant:session:"
	}
	return &RedisStore{client: client, prefix: prefix, limits: limits}
}

func (s *RedisStore) metaKey(id string) string { return s.prefix + "meta:" + id }
func (s *RedisStore) msgsKey(id string) string { return s.prefix + "msgs:" + id }
func (s *RedisStore) indexKey() string         { return s.prefix + "index" }

type redisMeta struct {
	CreatedAt time.Time `json:"created_at"`
}

func (s *RedisStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Create starts a new empty session.
func (s *RedisStore) Create(ctx context.Context) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	data, err := json.Marshal(redisMeta{CreatedAt: time.Now()})
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.metaKey(id), data, s.limits.IdleTimeout)
	pipe.SAdd(ctx, s.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// loadMeta returns the session metadata or ErrSessionNotFound once the
// TTL has lapsed.
func (s *RedisStore) loadMeta(ctx context.Context, sessionID string) (*redisMeta, error) {
	data, err := s.client.Get(ctx, s.metaKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var meta redisMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Append pushes a message, trims to the maximum and refreshes the TTLs.
// The push and trim run in one pipeline so a concurrent reader never
// observes an over-length history.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.loadMeta(ctx, sessionID); err != nil {
		return err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.msgsKey(sessionID), data)
	pipe.LTrim(ctx, s.msgsKey(sessionID), int64(-s.limits.MaxMessages), -1)
	pipe.Expire(ctx, s.msgsKey(sessionID), s.limits.IdleTimeout)
	pipe.Expire(ctx, s.metaKey(sessionID), s.limits.IdleTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// History returns all retained messages in order.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := s.loadMeta(ctx, sessionID); err != nil {
		return nil, err
	}

	data, err := s.client.LRange(ctx, s.msgsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	messages := make([]Message, 0, len(data))
	for _, d := range data {
		var msg Message
		if err := json.Unmarshal([]byte(d), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Window returns the most recent context-window messages in order.
func (s *RedisStore) Window(ctx context.Context, sessionID string) ([]Message, error) {
	history, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(history) > s.limits.ContextWindow {
		history = history[len(history)-s.limits.ContextWindow:]
	}
	return history, nil
}

// Delete removes a session and its messages.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.loadMeta(ctx, sessionID); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.metaKey(sessionID), s.msgsKey(sessionID))
	pipe.SRem(ctx, s.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Stats walks the index, dropping IDs whose keys have expired.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("list sessions: %w", err)
	}

	var stats Stats
	for _, id := range ids {
		meta, err := s.loadMeta(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			s.client.SRem(ctx, s.indexKey(), id)
			continue
		}
		if err != nil {
			return Stats{}, err
		}
		count, err := s.client.LLen(ctx, s.msgsKey(id)).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("count messages: %w", err)
		}
		stats.ActiveSessions++
		stats.TotalMessages += int(count)
		if stats.OldestSession == nil || meta.CreatedAt.Before(*stats.OldestSession) {
			c := meta.CreatedAt
			stats.OldestSession = &c
		}
	}
	return stats, nil
}

// Sweep reconciles the index with TTL-expired keys. Redis removes the
// session data itself.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	var removed int
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, s.metaKey(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("check session: %w", err)
		}
		if exists == 0 {
			s.client.SRem(ctx, s.indexKey(), id)
			removed++
		}
	}
	return removed, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.client.Ping(ctx).Err()
}
