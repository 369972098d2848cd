package hybridcache

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/hybridcache/future"
)

// GetAs reads key and decodes it into a T. A missing key, a stored null and
// text that does not decode as T all yield ok=false with a nil error; the
// last case is logged at warn level. Errors are reserved for invalid keys
// and backend failures, plus ErrTypeMismatch when a native local value
// (stored through Cache.Local) is not a T. For T = any the stored text is
// returned as is, the same string Get returns.
func GetAs[T any](ctx context.Context, cc *Cache, key string) (T, bool, error) {
	k, err := cc.storageKey(key)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return getAs[T](ctx, cc, cc.Backend(), k, key)
}

// getAs reads from the backend chosen by the caller, so queued async reads
// stay on the engine that was selected when they were submitted.
func getAs[T any](ctx context.Context, cc *Cache, backend Backend, k, key string) (T, bool, error) {
	var (
		zero T
		text string
		ok   bool
		err  error
	)
	if backend == BackendDistributed {
		text, ok, err = cc.remote.Get(ctx, k)
		if err != nil || !ok {
			return zero, false, err
		}
	} else {
		v, found := cc.local.Get(k)
		if !found || v == nil {
			return zero, false, nil
		}
		s, isText := v.(string)
		if !isText {
			t, isT := v.(T)
			if !isT {
				return zero, false, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, key, v)
			}
			return t, true, nil
		}
		text = s
	}

	var out T
	ok, err = cc.decodeText(text, &out)
	if err != nil {
		cc.log.Warn("stored value could not be decoded", Fields{
			"key":     key,
			"backend": backend,
			"type":    fmt.Sprintf("%T", zero),
			"err":     &SerializationError{Op: "decode", Key: key, Err: err},
		})
		return zero, false, nil
	}
	if !ok {
		return zero, false, nil
	}
	return out, true, nil
}

// GetAsyncAs is the asynchronous form of GetAs.
func GetAsyncAs[T any](ctx context.Context, cc *Cache, key string) *future.Future[future.Lookup[T]] {
	k, err := cc.storageKey(key)
	if err != nil {
		return future.Resolved(future.Lookup[T]{}, err)
	}
	backend := cc.Backend()
	if backend == BackendDistributed {
		ctx = context.WithoutCancel(ctx)
	}
	run := func() (future.Lookup[T], error) {
		v, ok, err := getAs[T](ctx, cc, backend, k, key)
		return future.Lookup[T]{Value: v, Found: ok}, err
	}
	if backend == BackendDistributed {
		return future.Go(run)
	}
	return future.Submit(cc.pool.Submit, run)
}
