package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestLockerExclusive(t *testing.T) {
	mr, rdb := newTestClient(t)
	l := NewLocker(rdb, "test:")
	ctx := context.Background()

	release, err := l.Lock(ctx, "checkout:1", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:checkout:1"))

	_, err = l.Lock(ctx, "checkout:1", time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	release()
	assert.False(t, mr.Exists("test:checkout:1"))

	release2, err := l.Lock(ctx, "checkout:1", time.Second)
	require.NoError(t, err)
	release2()
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	mr, rdb := newTestClient(t)
	l := NewLocker(rdb, "test:")
	ctx := context.Background()

	release, err := l.Lock(ctx, "assign:9", time.Second)
	require.NoError(t, err)

	// 锁过期后被别人拿到
	mr.FastForward(2 * time.Second)
	other, err := l.Lock(ctx, "assign:9", time.Second)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists("test:assign:9"))
	other()
}

func TestDeduper(t *testing.T) {
	_, rdb := newTestClient(t)
	d := NewDeduper(rdb, "done:", time.Minute)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, again)

	d.Forget(ctx, "evt-1")
	retry, err := d.FirstSeen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, retry)

	empty, err := d.FirstSeen(ctx, "")
	require.NoError(t, err)
	assert.True(t, empty)
}
