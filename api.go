package hybridcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/hybridcache/codec"
	"github.com/unkn0wn-root/hybridcache/future"
	"github.com/unkn0wn-root/hybridcache/provider/local"
	"github.com/unkn0wn-root/hybridcache/provider/redis"
)

// NoExpiration passed as a ttl stores an entry that never expires.
const NoExpiration time.Duration = -1

// Backend names the engine serving a call.
type Backend string

const (
	BackendLocal       Backend = "local"
	BackendDistributed Backend = "distributed"
)

// API is the full facade surface; *Cache implements it. The typed reads
// GetAs and GetAsyncAs are package functions because methods cannot take
// type parameters.
type API interface {
	SetConnection(connStr string)
	HasConnection() bool
	Backend() Backend
	Close(ctx context.Context) error

	Add(ctx context.Context, key string, value any, ttl time.Duration) error
	AddWithPolicy(ctx context.Context, key string, value any, policy local.Policy) error
	Update(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Clear(ctx context.Context) error

	AddAsync(ctx context.Context, key string, value any, ttl time.Duration) *future.Future[struct{}]
	RemoveAsync(ctx context.Context, key string) *future.Future[bool]
	ExistsAsync(ctx context.Context, key string) *future.Future[bool]
	GetAsync(ctx context.Context, key string) *future.Future[future.Lookup[string]]
}

var _ API = (*Cache)(nil)

// Options configure a Cache. Everything is optional.
type Options struct {
	// ConnectionString, when set, routes calls to Redis from the start.
	// It can be changed later with SetConnection.
	ConnectionString string

	Codec      c.Codec       // nil => codec.JSON
	Logger     Logger        // nil => NopLogger
	DefaultTTL time.Duration // used when a call passes ttl 0; 0 => 1m
	Namespace  string        // optional key prefix "<ns>:" on both backends

	LocalStore           local.Store   // nil => go-cache store
	LocalCleanupInterval time.Duration // janitor period of the default store; 0 => 1m
	LocalWorkers         int           // goroutines serving local async calls; 0 => 1
	LocalQueue           int           // queued local async calls before overflow; 0 => 1024

	Dial redis.DialFunc // nil => redis.Dial
}

// Minutes converts a fractional minute count into a ttl.
func Minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
