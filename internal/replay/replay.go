// Package replay remembers consumed challenges so a signed challenge is
// accepted at most once within its time-to-live.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidTTL is returned when a key is consumed with a non-positive ttl.
var ErrInvalidTTL = errors.New("replay ttl must be positive")

// Store records consumed keys. Consume returns true the first time key is
// seen within ttl and false for every later attempt until it expires.
type Store interface {
	Consume(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Consume implements Store.
func (s *MemoryStore) Consume(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	s.purge(now)
	return true, nil
}

// Len returns the number of unexpired keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge(s.now())
	return len(s.expires)
}

// purge drops expired keys. Callers hold mu.
func (s *MemoryStore) purge(now time.Time) {
	for k, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, k)
		}
	}
}

// DefaultKeyPrefix namespaces replay keys in Redis.
const DefaultKeyPrefix = "walletverify:replay:"

// setNX is the subset of the go-redis client used by RedisStore.
type setNX interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisStore is a Store shared between processes through Redis SET NX.
type RedisStore struct {
	client    setNX
	closer    func() error
	keyPrefix string
}

// NewRedisStore connects to the Redis server at url (redis://...) and
// checks the connection.
func NewRedisStore(ctx context.Context, url, keyPrefix string) (*RedisStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url cannot be empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := NewRedisStoreFromClient(client, keyPrefix)
	store.closer = client.Close
	return store, nil
}

// NewRedisStoreFromClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisStoreFromClient(client setNX, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Consume implements Store.
func (s *RedisStore) Consume(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	fresh, err := s.client.SetNX(ctx, s.keyPrefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return fresh, nil
}

// Close releases the connection when the store opened it.
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
