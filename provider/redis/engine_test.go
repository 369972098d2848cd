package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

func newEngine(t *testing.T, connStr string) *Engine {
	t.Helper()
	e := New(Config{})
	e.SetConnection(connStr)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestNoConnectionFailsFast(t *testing.T) {
	ctx := context.Background()
	e := New(Config{})
	assert.False(t, e.HasConnectionString())

	err := e.Add(ctx, "k", "v", 0)
	assert.ErrorIs(t, err, ErrNoConnection)
	_, _, err = e.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNoConnection)
	_, err = e.Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrNoConnection)
	_, err = e.Remove(ctx, "k")
	assert.ErrorIs(t, err, ErrNoConnection)
	assert.ErrorIs(t, e.Clear(ctx), ErrNoConnection)

	_, err = e.ExistsAsync(ctx, "k").Await(ctx)
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestBlankConnectionStringCountsAsUnset(t *testing.T) {
	e := New(Config{})
	e.SetConnection("   ")
	assert.False(t, e.HasConnectionString())

	e.SetConnection("localhost:6379")
	assert.True(t, e.HasConnectionString())

	e.SetConnection("")
	assert.False(t, e.HasConnectionString())
}

func TestAddGetExistsRemove(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)
	e := newEngine(t, mr.Addr())

	_, ok, err := e.Get(ctx, "item")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.Add(ctx, "item", "cachedItem", 0))
	v, ok, err := e.Get(ctx, "item")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cachedItem", v)

	exists, err := e.Exists(ctx, "item")
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err := e.Remove(ctx, "item")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = e.Remove(ctx, "item")
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err = e.Exists(ctx, "item")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAddOverwritesAndExpires(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)
	e := newEngine(t, mr.Addr())

	require.NoError(t, e.Add(ctx, "k", "one", 0))
	require.NoError(t, e.Add(ctx, "k", "two", time.Minute))
	v, _, err := e.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	exists, err := e.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, e.Add(ctx, "forever", "v", 0))
	assert.Equal(t, time.Duration(0), mr.TTL("forever"))
}

func TestClearFlushesEverything(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)
	e := newEngine(t, mr.Addr())

	require.NoError(t, e.Add(ctx, "a", "1", 0))
	require.NoError(t, mr.Set("foreign", "x"))
	require.NoError(t, e.Clear(ctx))

	assert.Empty(t, mr.Keys())
}

func TestAsyncOperations(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)
	e := newEngine(t, mr.Addr())

	_, err := e.AddAsync(ctx, "k", "v", time.Minute).Await(ctx)
	require.NoError(t, err)

	got, err := e.GetAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, "v", got.Value)

	exists, err := e.ExistsAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err := e.RemoveAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.True(t, removed)

	miss, err := e.GetAsync(ctx, "k").Await(ctx)
	require.NoError(t, err)
	assert.False(t, miss.Found)
}

func TestAsyncSurvivesCallerCancel(t *testing.T) {
	mr := setupMiniRedis(t)
	e := newEngine(t, mr.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	f := e.AddAsync(ctx, "k", "v", 0)
	cancel()
	<-f.Done()

	_, err := f.Await(context.Background())
	require.NoError(t, err)
	v, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestHandleIsLazyAndRebuiltOnSwap(t *testing.T) {
	ctx := context.Background()
	mr1 := setupMiniRedis(t)
	mr2 := setupMiniRedis(t)

	var dials atomic.Int32
	e := New(Config{Dial: func(ctx context.Context, s Settings) (goredis.UniversalClient, error) {
		dials.Add(1)
		return Dial(ctx, s)
	}})
	t.Cleanup(func() { _ = e.Close(ctx) })

	e.SetConnection(mr1.Addr())
	assert.Equal(t, int32(0), dials.Load(), "no dial before first use")

	require.NoError(t, e.Add(ctx, "k", "one", 0))
	require.NoError(t, e.Add(ctx, "k2", "one", 0))
	assert.Equal(t, int32(1), dials.Load(), "handle reused across calls")

	old, err := e.Client(ctx)
	require.NoError(t, err)

	e.SetConnection(mr2.Addr())
	require.NoError(t, e.Add(ctx, "k", "two", 0))
	assert.Equal(t, int32(2), dials.Load())

	// nothing was using the previous client, so the swap closed it
	assert.ErrorIs(t, old.Ping(ctx).Err(), goredis.ErrClosed)

	v, err := mr1.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	v2, err := mr2.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v2)
}

func TestRetiredHandleClosesAfterLastCall(t *testing.T) {
	ctx := context.Background()
	mr1 := setupMiniRedis(t)
	mr2 := setupMiniRedis(t)
	e := newEngine(t, mr1.Addr())

	c, release, err := e.acquire(ctx)
	require.NoError(t, err)

	e.SetConnection(mr2.Addr())
	require.NoError(t, c.Set(ctx, "k", "in-flight", 0).Err(), "pinned client stays open")

	release()
	assert.ErrorIs(t, c.Ping(ctx).Err(), goredis.ErrClosed)

	v, err := mr1.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "in-flight", v)
}

func TestCloseDuringDialClosesNewClient(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)

	entered := make(chan struct{})
	gate := make(chan struct{})
	built := make(chan goredis.UniversalClient, 1)
	e := New(Config{Dial: func(ctx context.Context, s Settings) (goredis.UniversalClient, error) {
		close(entered)
		<-gate
		c, err := Dial(ctx, s)
		built <- c
		return c, err
	}})
	e.SetConnection(mr.Addr())

	done := make(chan error, 1)
	go func() { done <- e.Add(ctx, "k", "v", 0) }()

	<-entered
	require.NoError(t, e.Close(ctx))
	close(gate)
	require.NoError(t, <-done)

	c := <-built
	assert.ErrorIs(t, c.Ping(ctx).Err(), goredis.ErrClosed)
	assert.ErrorIs(t, e.Add(ctx, "k", "v", 0), ErrClosed)
}

func TestFailedDialIsRetried(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)

	var fail atomic.Bool
	fail.Store(true)
	e := New(Config{Dial: func(ctx context.Context, s Settings) (goredis.UniversalClient, error) {
		if fail.Load() {
			return nil, errors.New("unreachable")
		}
		return Dial(ctx, s)
	}})
	t.Cleanup(func() { _ = e.Close(ctx) })
	e.SetConnection(mr.Addr())

	require.Error(t, e.Add(ctx, "k", "v", 0))
	fail.Store(false)
	require.NoError(t, e.Add(ctx, "k", "v", 0))
}

func TestAbortConnectReportsUnreachableHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	mr := setupMiniRedis(t)
	addr := mr.Addr()
	mr.Close()

	e := newEngine(t, addr+",connectTimeout=200")
	err := e.Add(ctx, "k", "v", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoConnection)
}

func TestClosedEngineRejectsCalls(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniRedis(t)
	e := New(Config{})
	e.SetConnection(mr.Addr())
	require.NoError(t, e.Add(ctx, "k", "v", 0))

	require.NoError(t, e.Close(ctx))
	require.NoError(t, e.Close(ctx))
	assert.ErrorIs(t, e.Add(ctx, "k", "v", 0), ErrClosed)
}
