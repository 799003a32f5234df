package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl), mr
}

func TestLocker_AcquireRelease(t *testing.T) {
	l, mr := newTestLocker(t, time.Minute)
	ctx := context.Background()

	lk, err := l.Acquire(ctx, "rinkeby")
	require.NoError(t, err)
	assert.True(t, mr.Exists(Key("rinkeby")))
	assert.Equal(t, time.Minute, mr.TTL(Key("rinkeby")))

	_, err = l.Acquire(ctx, "rinkeby")
	assert.ErrorIs(t, err, ErrHeld)

	other, err := l.Acquire(ctx, "development")
	require.NoError(t, err)
	defer other.Release(ctx)

	require.NoError(t, lk.Release(ctx))
	assert.False(t, mr.Exists(Key("rinkeby")))

	again, err := l.Acquire(ctx, "rinkeby")
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLock_ReleaseAfterExpiry(t *testing.T) {
	l, mr := newTestLocker(t, time.Second)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "rinkeby")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	current, err := l.Acquire(ctx, "rinkeby")
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Release(ctx), ErrNotHeld)
	assert.True(t, mr.Exists(Key("rinkeby")))
	require.NoError(t, current.Release(ctx))
}

func TestNew_DefaultTTL(t *testing.T) {
	l := New(nil, 0)
	assert.Equal(t, 30*time.Minute, l.ttl)
}
