// Package local is the in-process backend: a single-node, volatile cache with
// policy-driven expiration on top of a pluggable Store.
//
// Every Engine operation runs under one engine-wide mutex. The underlying
// Store is safe for single calls, but composite sequences such as
// "get then delete" in Remove or "get then renew" for sliding entries are not
// atomic on their own.
package local

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrTypeMismatch is returned by Get[T] when the stored value is not a T.
	ErrTypeMismatch = errors.New("local cache: stored value does not match requested type")
	// ErrInvalidPolicy is returned for a negative sliding window.
	ErrInvalidPolicy = errors.New("local cache: invalid expiration policy")
)

// Policy describes when an entry becomes eligible for removal.
// The zero Policy never expires. When both fields are set the earlier
// deadline wins: the entry dies at AbsoluteExpiration even if it keeps
// being read.
type Policy struct {
	// AbsoluteExpiration is a fixed deadline; zero means none.
	AbsoluteExpiration time.Time
	// SlidingExpiration evicts the entry when it has not been read for this
	// long; every Get pushes the deadline forward. Zero means none.
	SlidingExpiration time.Duration
}

// Absolute returns a policy expiring ttl from now. ttl <= 0 never expires.
func Absolute(ttl time.Duration) Policy {
	if ttl <= 0 {
		return Policy{}
	}
	return Policy{AbsoluteExpiration: time.Now().Add(ttl)}
}

// Sliding returns a policy that expires after d without reads.
func Sliding(d time.Duration) Policy {
	return Policy{SlidingExpiration: d}
}

func (p Policy) validate() error {
	if p.SlidingExpiration < 0 {
		return fmt.Errorf("%w: negative sliding expiration %s", ErrInvalidPolicy, p.SlidingExpiration)
	}
	return nil
}

// remaining returns the ttl to hand the store at now (0 = no expiry) and
// whether the entry is already past its absolute deadline.
func (p Policy) remaining(now time.Time) (time.Duration, bool) {
	var ttl time.Duration
	if !p.AbsoluteExpiration.IsZero() {
		ttl = p.AbsoluteExpiration.Sub(now)
		if ttl <= 0 {
			return 0, true
		}
	}
	if p.SlidingExpiration > 0 && (ttl == 0 || p.SlidingExpiration < ttl) {
		ttl = p.SlidingExpiration
	}
	return ttl, false
}

type entry struct {
	value  any
	policy Policy
}

type Engine struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// DefaultCleanupInterval is the janitor period of the default store.
const DefaultCleanupInterval = time.Minute

// New wraps store. A nil store selects a go-cache store sweeping every
// DefaultCleanupInterval.
func New(store Store) *Engine {
	if store == nil {
		store = NewGoCacheStore(DefaultCleanupInterval)
	}
	return &Engine{store: store, now: time.Now}
}

// Add inserts or overwrites key with an absolute deadline ttl from now.
// ttl <= 0 stores the entry without expiration.
func (e *Engine) Add(key string, value any, ttl time.Duration) {
	var p Policy
	if ttl > 0 {
		p.AbsoluteExpiration = e.now().Add(ttl)
	}
	e.mu.Lock()
	e.put(key, value, p)
	e.mu.Unlock()
}

// AddWithPolicy inserts or overwrites key under a custom policy. A policy
// whose absolute deadline already passed leaves key absent.
func (e *Engine) AddWithPolicy(key string, value any, p Policy) error {
	if err := p.validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.put(key, value, p)
	e.mu.Unlock()
	return nil
}

// Set is the indexer-style write: the entry never expires.
func (e *Engine) Set(key string, value any) {
	e.mu.Lock()
	e.put(key, value, Policy{})
	e.mu.Unlock()
}

// put must be called with e.mu held.
func (e *Engine) put(key string, value any, p Policy) {
	ttl, expired := p.remaining(e.now())
	if expired {
		e.store.Delete(key)
		return
	}
	e.store.Set(key, entry{value: value, policy: p}, ttl)
}

// Get returns the stored value. Reading a sliding entry renews it.
func (e *Engine) Get(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.lookup(key)
	if !ok {
		return nil, false
	}
	if en.policy.SlidingExpiration > 0 {
		e.put(key, en.value, en.policy)
	}
	return en.value, true
}

// Exists reports whether key holds a live entry. It does not renew sliding
// entries.
func (e *Engine) Exists(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.lookup(key)
	return ok
}

// Remove deletes key and reports whether a live entry was there.
func (e *Engine) Remove(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.lookup(key); !ok {
		return false
	}
	e.store.Delete(key)
	return true
}

// Clear removes every live entry one key at a time and returns how many keys
// it deleted. Entries inserted by other goroutines while the enumeration is
// in flight cannot appear: the engine lock is held throughout.
func (e *Engine) Clear() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := e.store.Keys()
	for _, k := range keys {
		e.store.Delete(k)
	}
	return len(keys)
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// lookup must be called with e.mu held.
func (e *Engine) lookup(key string) (entry, bool) {
	v, ok := e.store.Get(key)
	if !ok {
		return entry{}, false
	}
	en, ok := v.(entry)
	if !ok {
		// foreign write into a shared store; treat as the raw value
		return entry{value: v}, true
	}
	if _, expired := en.policy.remaining(e.now()); expired {
		e.store.Delete(key)
		return entry{}, false
	}
	return en, true
}

// Get returns the value under key as a T. A missing key yields ok=false with
// a nil error; a value of another type yields ErrTypeMismatch.
func Get[T any](e *Engine, key string) (T, bool, error) {
	var zero T
	v, ok := e.Get(key)
	if !ok || v == nil {
		return zero, false, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, key, v, zero)
	}
	return t, true, nil
}
