package local

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the in-process object cache the Engine drives. Implementations
// must be safe for concurrent use and must stop returning an entry once its
// ttl has elapsed, whether or not a background reaper has run yet.
type Store interface {
	// Set inserts or overwrites key. ttl <= 0 means the entry never expires.
	Set(key string, value any, ttl time.Duration)
	// Get returns the live value stored under key.
	Get(key string) (any, bool)
	// Delete removes key; missing keys are ignored.
	Delete(key string)
	// Keys enumerates the keys of live entries.
	Keys() []string
	// Close releases background resources.
	Close() error
}

// GoCacheStore is the default Store, backed by patrickmn/go-cache.
type GoCacheStore struct {
	c *gocache.Cache
}

var _ Store = (*GoCacheStore)(nil)

// NewGoCacheStore builds a go-cache store whose janitor sweeps expired items
// every cleanupInterval. cleanupInterval <= 0 disables the janitor; expired
// items are then only dropped lazily on access.
func NewGoCacheStore(cleanupInterval time.Duration) *GoCacheStore {
	return &GoCacheStore{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *GoCacheStore) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, value, ttl)
}

func (s *GoCacheStore) Get(key string) (any, bool) { return s.c.Get(key) }

func (s *GoCacheStore) Delete(key string) { s.c.Delete(key) }

// Keys snapshots live keys; Items already filters expired ones.
func (s *GoCacheStore) Keys() []string {
	items := s.c.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

// Close is a no-op: go-cache stops its janitor when the cache is collected.
func (s *GoCacheStore) Close() error { return nil }
