package directory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radityapura/medigate/internal/db/models"
	"github.com/radityapura/medigate/internal/gateway/metrics"
	"github.com/radityapura/medigate/pkg/logger"
)

// DefaultCacheTTL bounds how stale a cached tenant record may get.
const DefaultCacheTTL = 30 * time.Second

// CacheStore is a TTL'd key/value store for serialized lookup results.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryStore is an in-process CacheStore. Entries expire lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the cached value for key if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// RedisStore is a Redis-backed CacheStore for multi-instance deployments.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a cache store over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the cached value for key, if any.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key for ttl.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedDirectory decorates a Directory with a short-TTL lookup cache. The
// cache is a latency optimization only: every failure path falls through to
// the underlying directory, and only positive matches are cached so a newly
// configured tenant is visible immediately.
type CachedDirectory struct {
	next  Directory
	store CacheStore
	ttl   time.Duration
}

// NewCachedDirectory wraps next with a lookup cache using the given TTL.
func NewCachedDirectory(next Directory, store CacheStore, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{
		next:  next,
		store: store,
		ttl:   ttl,
	}
}

// FindHospitalBySubdomain implements Directory.
func (d *CachedDirectory) FindHospitalBySubdomain(ctx context.Context, subdomain string) (*models.Hospital, error) {
	return d.lookup(ctx, "hospital:subdomain:"+subdomain, func(ctx context.Context) (*models.Hospital, error) {
		return d.next.FindHospitalBySubdomain(ctx, subdomain)
	})
}

// FindHospitalByName implements Directory.
func (d *CachedDirectory) FindHospitalByName(ctx context.Context, normalizedName string) (*models.Hospital, error) {
	return d.lookup(ctx, "hospital:name:"+normalizedName, func(ctx context.Context) (*models.Hospital, error) {
		return d.next.FindHospitalByName(ctx, normalizedName)
	})
}

// FindHospitalByCustomDomain implements Directory.
func (d *CachedDirectory) FindHospitalByCustomDomain(ctx context.Context, hostname string) (*models.Hospital, error) {
	return d.lookup(ctx, "hospital:domain:"+hostname, func(ctx context.Context) (*models.Hospital, error) {
		return d.next.FindHospitalByCustomDomain(ctx, hostname)
	})
}

func (d *CachedDirectory) lookup(ctx context.Context, key string, fetch func(context.Context) (*models.Hospital, error)) (*models.Hospital, error) {
	if raw, ok, err := d.store.Get(ctx, key); err != nil {
		logger.WarnEvent().
			Err(err).
			Str("key", key).
			Msg("Directory cache read failed")
	} else if ok {
		var hospital models.Hospital
		if err := json.Unmarshal(raw, &hospital); err == nil {
			metrics.CacheHits.Inc()
			return &hospital, nil
		}
		logger.WarnEvent().
			Str("key", key).
			Msg("Discarding undecodable directory cache entry")
	}

	hospital, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(hospital); err == nil {
		if err := d.store.Set(ctx, key, raw, d.ttl); err != nil {
			logger.WarnEvent().
				Err(err).
				Str("key", key).
				Msg("Directory cache write failed")
		}
	}

	return hospital, nil
}
