package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoResolves(t *testing.T) {
	f := Go(func() (int, error) { return 7, nil })
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// repeated Await returns the same result
	v, err = f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmitUsesScheduler(t *testing.T) {
	var scheduled int
	f := Submit(func(job func()) {
		scheduled++
		job()
	}, func() (string, error) { return "x", nil })

	<-f.Done()
	assert.Equal(t, 1, scheduled)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestResolvedCarriesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Resolved(false, boom).Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestAwaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	f := Go(func() (int, error) {
		<-release
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v, "operation keeps running after a caller stops waiting")
}

func TestPanicBecomesError(t *testing.T) {
	f := Go(func() (int, error) { panic("bad") })
	_, err := f.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
