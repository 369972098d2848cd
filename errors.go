package hybridcache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/hybridcache/provider/local"
	"github.com/unkn0wn-root/hybridcache/provider/redis"
)

var (
	// ErrInvalidKey is returned by every keyed operation for an empty or
	// whitespace-only key.
	ErrInvalidKey = errors.New("hybridcache: key is null or empty")

	// ErrNoConnection is returned when the distributed engine is used before
	// a connection string is set.
	ErrNoConnection = redis.ErrNoConnection

	// ErrTypeMismatch is returned when a natively stored local value is read
	// back as a different type.
	ErrTypeMismatch = local.ErrTypeMismatch
)

// SerializationError wraps a codec failure.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("hybridcache: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
