package hybridcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/hybridcache/future"
)

// The async methods validate and encode on the calling goroutine, so bad
// input comes back as an already resolved future. Redis calls then run on
// their own goroutine with a context detached from ctx's cancellation;
// local calls go through the worker pool and take the same engine lock as
// the sync calls.

func (cc *Cache) AddAsync(ctx context.Context, key string, value any, ttl time.Duration) *future.Future[struct{}] {
	k, err := cc.storageKey(key)
	if err != nil {
		return future.Resolved(struct{}{}, err)
	}
	text, err := cc.encode(key, value)
	if err != nil {
		return future.Resolved(struct{}{}, err)
	}
	ttl = cc.ttl(ttl)
	if cc.Backend() == BackendDistributed {
		return cc.remote.AddAsync(ctx, k, text, ttl)
	}
	return future.Submit(cc.pool.Submit, func() (struct{}, error) {
		cc.local.Add(k, text, ttl)
		return struct{}{}, nil
	})
}

func (cc *Cache) RemoveAsync(ctx context.Context, key string) *future.Future[bool] {
	k, err := cc.storageKey(key)
	if err != nil {
		return future.Resolved(false, err)
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.RemoveAsync(ctx, k)
	}
	return future.Submit(cc.pool.Submit, func() (bool, error) {
		return cc.local.Remove(k), nil
	})
}

func (cc *Cache) ExistsAsync(ctx context.Context, key string) *future.Future[bool] {
	k, err := cc.storageKey(key)
	if err != nil {
		return future.Resolved(false, err)
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.ExistsAsync(ctx, k)
	}
	return future.Submit(cc.pool.Submit, func() (bool, error) {
		return cc.local.Exists(k), nil
	})
}

func (cc *Cache) GetAsync(ctx context.Context, key string) *future.Future[future.Lookup[string]] {
	k, err := cc.storageKey(key)
	if err != nil {
		return future.Resolved(future.Lookup[string]{}, err)
	}
	if cc.Backend() == BackendDistributed {
		return cc.remote.GetAsync(ctx, k)
	}
	return future.Submit(cc.pool.Submit, func() (future.Lookup[string], error) {
		s, ok, err := cc.localText(key, k)
		return future.Lookup[string]{Value: s, Found: ok}, err
	})
}
