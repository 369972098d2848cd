package hybridcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	c "github.com/unkn0wn-root/hybridcache/codec"
	"github.com/unkn0wn-root/hybridcache/internal/util"
	"github.com/unkn0wn-root/hybridcache/internal/worker"
	"github.com/unkn0wn-root/hybridcache/provider/local"
	"github.com/unkn0wn-root/hybridcache/provider/redis"
)

// Cache is the facade. Construct one with New and share it; it is safe for
// concurrent use.
type Cache struct {
	ns         string
	codec      c.Codec
	log        Logger
	defaultTTL time.Duration

	local  *local.Engine
	remote *redis.Engine
	pool   *worker.Pool

	closeOnce sync.Once
	closeErr  error
}

func New(opts Options) (*Cache, error) {
	if opts.DefaultTTL < 0 && opts.DefaultTTL != NoExpiration {
		return nil, fmt.Errorf("hybridcache: invalid default ttl %s", opts.DefaultTTL)
	}
	if opts.LocalWorkers < 0 || opts.LocalQueue < 0 {
		return nil, fmt.Errorf("hybridcache: local worker settings must not be negative")
	}

	store := opts.LocalStore
	if store == nil {
		store = local.NewGoCacheStore(coalesce(opts.LocalCleanupInterval, local.DefaultCleanupInterval))
	}

	cc := &Cache{
		ns:         opts.Namespace,
		codec:      coalesce[c.Codec](opts.Codec, c.JSON{}),
		log:        coalesce[Logger](opts.Logger, NopLogger{}),
		defaultTTL: coalesce(opts.DefaultTTL, defaultTTL),
		local:      local.New(store),
		remote:     redis.New(redis.Config{Dial: opts.Dial}),
		pool:       worker.New(opts.LocalWorkers, opts.LocalQueue),
	}
	if opts.ConnectionString != "" {
		cc.SetConnection(opts.ConnectionString)
	}
	return cc, nil
}

// SetConnection points the distributed engine at connStr. A blank string
// routes every later call back to the local backend. The connection itself
// is established on the next distributed call.
func (cc *Cache) SetConnection(connStr string) {
	cc.remote.SetConnection(connStr)
	if cc.remote.HasConnectionString() {
		cc.log.Info("distributed connection configured", Fields{"backend": BackendDistributed})
	} else {
		cc.log.Info("distributed connection cleared", Fields{"backend": BackendLocal})
	}
}

// HasConnection reports whether calls are currently routed to Redis.
func (cc *Cache) HasConnection() bool { return cc.remote.HasConnectionString() }

// Backend returns the engine the next call will use. The answer is
// recomputed on every call, never cached.
func (cc *Cache) Backend() Backend {
	if cc.remote.HasConnectionString() {
		return BackendDistributed
	}
	return BackendLocal
}

// Local exposes the in-process engine, for callers that want to store
// native values without text normalization.
func (cc *Cache) Local() *local.Engine { return cc.local }

// Remote exposes the distributed engine.
func (cc *Cache) Remote() *redis.Engine { return cc.remote }

// Add stores value under key. ttl 0 uses the default ttl; NoExpiration keeps
// the entry until removed. On the local backend the ttl becomes an absolute
// deadline.
func (cc *Cache) Add(ctx context.Context, key string, value any, ttl time.Duration) error {
	k, err := cc.storageKey(key)
	if err != nil {
		return err
	}
	text, err := cc.encode(key, value)
	if err != nil {
		return err
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.Add(ctx, k, text, cc.ttl(ttl))
	}
	cc.local.Add(k, text, cc.ttl(ttl))
	return nil
}

// AddWithPolicy always targets the local backend, whatever the routing.
func (cc *Cache) AddWithPolicy(_ context.Context, key string, value any, policy local.Policy) error {
	k, err := cc.storageKey(key)
	if err != nil {
		return err
	}
	text, err := cc.encode(key, value)
	if err != nil {
		return err
	}
	return cc.local.AddWithPolicy(k, text, policy)
}

// Update is the indexer-style write on the local backend: it overwrites key
// with an entry that never expires.
func (cc *Cache) Update(_ context.Context, key string, value any) error {
	k, err := cc.storageKey(key)
	if err != nil {
		return err
	}
	text, err := cc.encode(key, value)
	if err != nil {
		return err
	}
	cc.local.Set(k, text)
	return nil
}

// Remove reports whether a live entry was deleted.
func (cc *Cache) Remove(ctx context.Context, key string) (bool, error) {
	k, err := cc.storageKey(key)
	if err != nil {
		return false, err
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.Remove(ctx, k)
	}
	return cc.local.Remove(k), nil
}

func (cc *Cache) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cc.storageKey(key)
	if err != nil {
		return false, err
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.Exists(ctx, k)
	}
	return cc.local.Exists(k), nil
}

// Get returns the stored text. ok is false when key is absent.
func (cc *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := cc.storageKey(key)
	if err != nil {
		return "", false, err
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.Get(ctx, k)
	}
	return cc.localText(key, k)
}

// Clear empties the backend currently selected and leaves the other one
// alone. On Redis this is FLUSHALL on every master.
func (cc *Cache) Clear(ctx context.Context) error {
	if cc.Backend() == BackendDistributed {
		if err := cc.remote.Clear(ctx); err != nil {
			return err
		}
		cc.log.Debug("cleared backend", Fields{"backend": BackendDistributed})
		return nil
	}
	n := cc.local.Clear()
	cc.log.Debug("cleared backend", Fields{"backend": BackendLocal, "removed": n})
	return nil
}

// Close stops the local worker pool after draining queued calls, then
// releases both engines. Repeated calls return the first result.
func (cc *Cache) Close(ctx context.Context) error {
	cc.closeOnce.Do(func() {
		cc.pool.Close()
		cc.closeErr = errors.Join(cc.local.Close(), cc.remote.Close(ctx))
	})
	return cc.closeErr
}

func (cc *Cache) storageKey(key string) (string, error) {
	if !util.ValidKey(key) {
		return "", ErrInvalidKey
	}
	return util.StorageKey(cc.ns, key), nil
}

func (cc *Cache) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = cc.defaultTTL
	}
	if ttl < 0 {
		return 0 // engines treat 0 as no expiry
	}
	return ttl
}

// localText reads a local entry as text. Entries written through the facade
// are already text; native values stored via Local() are encoded on the way
// out.
func (cc *Cache) localText(key, storageKey string) (string, bool, error) {
	v, ok := cc.local.Get(storageKey)
	if !ok {
		return "", false, nil
	}
	if s, isText := v.(string); isText {
		return s, true, nil
	}
	s, err := cc.encode(key, v)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
