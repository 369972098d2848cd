// Package hybridcache implements a key-value cache facade that serves every
// call from either an in-process store or a Redis deployment, chosen per call
// by whether a Redis connection string is configured.
//
// Components:
//   - Cache: the facade. Validates keys, normalizes values to text, routes.
//   - provider/local: in-process engine with absolute and sliding expiry.
//   - provider/redis: distributed engine with a lazily built, swappable client.
//   - codec: serializes structured values (JSON by default).
//
// Routing:
//
//	c, _ := hybridcache.New(hybridcache.Options{})
//	_ = c.Add(ctx, "item", "cachedItem", 0)  // local: no connection string
//	c.SetConnection("cache:6379,password=...")
//	_ = c.Add(ctx, "item", user, 0)          // redis, JSON-encoded
//	u, ok, _ := hybridcache.GetAs[User](ctx, c, "item")
//
// Values of primitive kinds (strings, byte slices, booleans, integers,
// floats) are stored as their natural text; everything else goes through the
// codec. Every operation has an async twin returning a *future.Future. On the
// local backend these are scheduled onto a small worker pool and still take
// the engine lock, so they are scheduling shims, not asynchronous I/O.
package hybridcache
