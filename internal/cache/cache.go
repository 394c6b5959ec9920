package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/config"
)

// Store is the key-value cache boundary. Values are pre-serialized payloads;
// the cache never interprets them.
//
// The cache is a non-critical accelerator: Get collapses backend errors into
// a plain miss, and Set/Delete failures are logged but never returned, so the
// read paths never have to special-case an unavailable cache. A failed delete
// only risks staleness bounded by the entry's TTL, never an incorrect write.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// RedisStore implements Store on a Redis backend. Expiry is native, so an
// entry past its TTL is indistinguishable from an absent one.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(cfg config.RedisConfig, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisStore{
		client: client,
		logger: logger.Named("redis-cache"),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		s.logger.Debug("cache miss", zap.String("key", key))
		return "", false
	}
	if err != nil {
		// Fail open: an unreachable cache reads as a miss.
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}

	s.logger.Debug("cache hit", zap.String("key", key))
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	s.logger.Debug("cache invalidated", zap.Strings("keys", keys))
}

// Ping checks that the cache backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MemoryStore is an in-process Store used by tests and local development.
// Entries carry an absolute expiry; a read past the expiry behaves exactly
// like a read of an absent key.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// now is swappable so tests can cross TTL boundaries without sleeping.
	now func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's clock. Test use only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return "", false
	}
	return entry.value, true
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
	}
}

// NoopStore is used when caching is disabled: every read is a miss and every
// write is discarded.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (NoopStore) Get(context.Context, string) (string, bool)         { return "", false }
func (NoopStore) Set(context.Context, string, string, time.Duration) {}
func (NoopStore) Delete(context.Context, ...string)                  {}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*NoopStore)(nil)
)
