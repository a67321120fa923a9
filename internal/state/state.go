// Package state persists the sync cursor between runs. The canonical
// backend is Redis; the in-memory store backs tests and the debug CLI.
package state

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"bmw-vin-connector/internal/common/errors"
	"bmw-vin-connector/internal/models"
)

// DefaultKey is the Redis key holding the serialized sync state.
const DefaultKey = "connector:sync_state"

// Store loads and saves the sync state. Load on a backend with no
// saved state returns a fresh empty state, not an error.
type Store interface {
	Load(ctx context.Context) (*models.SyncState, error)
	Save(ctx context.Context, state *models.SyncState) error
}

// RedisStore keeps the sync state as a single JSON blob under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.SyncState, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return models.NewSyncState(), nil
	}
	if err != nil {
		return nil, errors.NewStateLoadFailedError(err)
	}

	var state models.SyncState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, errors.NewStateLoadFailedError(err)
	}
	if state.Cursors == nil {
		state.Cursors = make(map[string]string)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *models.SyncState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.NewStateSaveFailedError(err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return errors.NewStateSaveFailedError(err)
	}
	return nil
}

// MemoryStore holds the state in process.
type MemoryStore struct {
	mu    sync.Mutex
	state *models.SyncState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return models.NewSyncState(), nil
	}
	// Copy so callers can't mutate the stored state before Save.
	clone := *s.state
	clone.Cursors = make(map[string]string, len(s.state.Cursors))
	for k, v := range s.state.Cursors {
		clone.Cursors[k] = v
	}
	return &clone, nil
}

func (s *MemoryStore) Save(_ context.Context, state *models.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *state
	clone.Cursors = make(map[string]string, len(state.Cursors))
	for k, v := range state.Cursors {
		clone.Cursors[k] = v
	}
	s.state = &clone
	return nil
}
