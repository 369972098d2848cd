// Package redis is the distributed backend. It adapts a Redis deployment
// (single node, sentinel or cluster) to a text-payload key-value contract and
// owns a lazily built connection handle that is swapped whenever the
// connection string changes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/hybridcache/future"
)

// ErrNoConnection is returned by every data operation issued before a
// non-blank connection string has been set.
var ErrNoConnection = errors.New("redis engine: no connection string configured")

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("redis engine: closed")

// DialFunc turns parsed settings into a client. It runs once per connection
// string, on first use.
type DialFunc func(ctx context.Context, s Settings) (goredis.UniversalClient, error)

// Dial is the default DialFunc.
func Dial(ctx context.Context, s Settings) (goredis.UniversalClient, error) {
	c := goredis.NewUniversalClient(&s.Options)
	if s.AbortConnect {
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("redis engine: connect %v: %w", s.Options.Addrs, err)
		}
	}
	return c, nil
}

type Config struct {
	Dial DialFunc // nil => Dial
}

type Engine struct {
	dial DialFunc

	mu     sync.RWMutex
	cur    *handle // nil while no connection string is set
	closed bool
}

// handle is one connection string and the client built from it. A failed
// build is not memoized; the next caller tries again. Once retired, the
// client is closed as soon as no call holds it.
type handle struct {
	connStr string

	mu     sync.Mutex
	client goredis.UniversalClient

	refMu   sync.Mutex
	refs    int
	retired bool
}

func (h *handle) get(ctx context.Context, dial DialFunc) (goredis.UniversalClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return h.client, nil
	}
	s, err := ParseConnString(h.connStr)
	if err != nil {
		return nil, err
	}
	c, err := dial(ctx, s)
	if err != nil {
		return nil, err
	}
	h.client = c
	return c, nil
}

func (h *handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	if errors.Is(err, goredis.ErrClosed) {
		return nil
	}
	return err
}

// release drops one reference and closes a retired handle on the last one.
func (h *handle) release() {
	h.refMu.Lock()
	h.refs--
	last := h.retired && h.refs == 0
	h.refMu.Unlock()
	if last {
		_ = h.close()
	}
}

// retire marks h as replaced and closes it now if it is idle.
func (h *handle) retire() error {
	h.refMu.Lock()
	h.retired = true
	idle := h.refs == 0
	h.refMu.Unlock()
	if idle {
		return h.close()
	}
	return nil
}

func New(cfg Config) *Engine {
	dial := cfg.Dial
	if dial == nil {
		dial = Dial
	}
	return &Engine{dial: dial}
}

// SetConnection records connStr. The next operation builds a fresh client;
// calls already running on the previous client finish on it, and it is
// closed after the last of them. A blank connStr unsets the connection.
func (e *Engine) SetConnection(connStr string) {
	var h *handle
	if strings.TrimSpace(connStr) != "" {
		h = &handle{connStr: connStr}
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	old := e.cur
	e.cur = h
	e.mu.Unlock()
	if old != nil {
		_ = old.retire()
	}
}

// HasConnectionString reports whether a non-blank connection string is set.
func (e *Engine) HasConnectionString() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cur != nil
}

// acquire pins the current handle for one call. The reference is taken
// under e.mu, so a concurrent SetConnection or Close always sees it and
// leaves closing to release.
func (e *Engine) acquire(ctx context.Context) (goredis.UniversalClient, func(), error) {
	e.mu.RLock()
	h, closed := e.cur, e.closed
	if !closed && h != nil {
		h.refMu.Lock()
		h.refs++
		h.refMu.Unlock()
	}
	e.mu.RUnlock()
	if closed {
		return nil, nil, ErrClosed
	}
	if h == nil {
		return nil, nil, ErrNoConnection
	}
	c, err := h.get(ctx, e.dial)
	if err != nil {
		h.release()
		return nil, nil, err
	}
	return c, h.release, nil
}

// Client returns the client for the current connection string, building it
// on first use. The engine owns it: it is closed once the connection string
// changes and no engine call is using it, or on Close.
func (e *Engine) Client(ctx context.Context) (goredis.UniversalClient, error) {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	release()
	return c, nil
}

// Add sets key to value, overwriting whatever was there. ttl <= 0 means no
// expiration.
func (e *Engine) Add(ctx context.Context, key, value string, ttl time.Duration) error {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	switch {
	case ttl < 0:
		ttl = 0
	case ttl > 0 && ttl < time.Millisecond:
		ttl = time.Millisecond // PX has millisecond resolution
	}
	return c.Set(ctx, key, value, ttl).Err()
}

// Get returns ("", false, nil) on a miss.
func (e *Engine) Get(ctx context.Context, key string) (string, bool, error) {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return "", false, err
	}
	defer release()
	s, err := c.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (e *Engine) Exists(ctx context.Context, key string) (bool, error) {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	n, err := c.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove deletes key and reports whether anything was deleted.
func (e *Engine) Remove(ctx context.Context, key string) (bool, error) {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	n, err := c.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear runs FLUSHALL on every master of the deployment. It wipes data that
// this process never wrote; treat it as an administrative operation.
func (e *Engine) Clear(ctx context.Context) error {
	c, release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if cc, ok := c.(*goredis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, m *goredis.Client) error {
			return m.FlushAll(ctx).Err()
		})
	}
	return c.FlushAll(ctx).Err()
}

// The async variants run the network call on their own goroutine. The call
// keeps ctx's values but not its cancellation: once issued it runs to
// completion even if the caller stops waiting.

func (e *Engine) AddAsync(ctx context.Context, key, value string, ttl time.Duration) *future.Future[struct{}] {
	ctx = context.WithoutCancel(ctx)
	return future.Go(func() (struct{}, error) {
		return struct{}{}, e.Add(ctx, key, value, ttl)
	})
}

func (e *Engine) GetAsync(ctx context.Context, key string) *future.Future[future.Lookup[string]] {
	ctx = context.WithoutCancel(ctx)
	return future.Go(func() (future.Lookup[string], error) {
		s, ok, err := e.Get(ctx, key)
		return future.Lookup[string]{Value: s, Found: ok}, err
	})
}

func (e *Engine) ExistsAsync(ctx context.Context, key string) *future.Future[bool] {
	ctx = context.WithoutCancel(ctx)
	return future.Go(func() (bool, error) { return e.Exists(ctx, key) })
}

func (e *Engine) RemoveAsync(ctx context.Context, key string) *future.Future[bool] {
	ctx = context.WithoutCancel(ctx)
	return future.Go(func() (bool, error) { return e.Remove(ctx, key) })
}

// Close closes the current client, or leaves it to the last in-flight call
// to close. Later calls fail with ErrClosed. Safe to call multiple times.
func (e *Engine) Close(context.Context) error {
	e.mu.Lock()
	h := e.cur
	e.closed = true
	e.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.retire()
}
