// Package session persists form sessions: one JSON blob per session, expiring
// after a TTL the way browser session storage disappears with its tab.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rental-admin-console/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("form session not found")

type Store interface {
	Load(ctx context.Context, sessionID string) (*models.FormState, error)
	Save(ctx context.Context, sessionID string, state models.FormState) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore keeps each session under "<prefix>:<sessionID>" and refreshes the TTL on every save.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*models.FormState, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, state models.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// NewRedisClient connects to a single node and pings it.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// MemoryStore keeps serialized blobs in process, so it round-trips exactly like RedisStore.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*models.FormState, error) {
	m.mu.RLock()
	data, ok := m.blobs[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, state models.FormState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	m.mu.Lock()
	m.blobs[sessionID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.blobs, sessionID)
	m.mu.Unlock()
	return nil
}

func decode(data []byte) (*models.FormState, error) {
	var state models.FormState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if state.UploadedPhotos.Slots == nil {
		state.UploadedPhotos.Slots = map[models.PhotoSlot]models.PhotoEntry{}
	}
	if state.UploadedDocuments == nil {
		state.UploadedDocuments = models.UploadedDocumentSet{}
	}
	return &state, nil
}
