// Package ristretto adapts dgraph-io/ristretto to the local.Store contract for
// deployments that need a cost-bounded in-process cache.
//
// Ristretto admits writes probabilistically: under memory pressure a Set may
// be dropped, so a freshly added key can read as missing. Use the default
// go-cache store when every write must be visible.
package ristretto

import (
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/hybridcache/provider/local"
)

type Store struct {
	c *rc.Cache

	// ristretto hashes keys and cannot enumerate them, so live keys are
	// tracked here and pruned lazily in Keys.
	mu   sync.Mutex
	keys map[string]struct{}
}

var _ local.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // every entry costs 1, so this is the item capacity
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c, keys: make(map[string]struct{})}, nil
}

// Set writes through ristretto's buffers and waits so the value is visible
// to the next Get.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	if s.c.SetWithTTL(key, value, 1, ttl) {
		s.c.Wait()
		s.mu.Lock()
		s.keys[key] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *Store) Get(key string) (any, bool) {
	return s.c.Get(key)
}

func (s *Store) Delete(key string) {
	s.c.Del(key)
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		if _, ok := s.c.Get(k); !ok {
			delete(s.keys, k) // expired or evicted
			continue
		}
		out = append(out, k)
	}
	return out
}

func (s *Store) Close() error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
