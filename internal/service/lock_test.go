package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLockClient keeps keys in a map and runs the release script's
// compare-and-delete in Go.  Script methods other than EvalSha are not
// expected to be called.
type memLockClient struct {
	redis.Scripter
	keys  map[string]string
	evals int
}

func newMemLockClient() *memLockClient {
	return &memLockClient{keys: map[string]string{}}
}

func (c *memLockClient) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := c.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	c.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (c *memLockClient) EvalSha(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	c.evals++
	if c.keys[keys[0]] == args[0] {
		delete(c.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLocker_ReleaseChecksToken(t *testing.T) {
	ctx := context.Background()
	rdb := newMemLockClient()
	l := &RedisLocker{rdb: rdb}

	release, err := l.TryLock(ctx, "maintenance", time.Minute)
	require.NoError(t, err)
	token := rdb.keys["maintenance"]
	require.NotEmpty(t, token)

	_, err = l.TryLock(ctx, "maintenance", time.Minute)
	assert.ErrorIs(t, err, ErrMaintenanceLocked)

	// Our lock expired and another process took it.
	rdb.keys["maintenance"] = "someone-else"
	require.NoError(t, release(ctx))
	assert.Equal(t, "someone-else", rdb.keys["maintenance"])

	delete(rdb.keys, "maintenance")
	release, err = l.TryLock(ctx, "maintenance", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, token, rdb.keys["maintenance"], "each lock gets a fresh token")
	require.NoError(t, release(ctx))
	assert.NotContains(t, rdb.keys, "maintenance")
	assert.Equal(t, 2, rdb.evals)
}

// TestRedisLocker_Server runs the real scripts against the server at
// REDIS_TEST_ADDR and is skipped when it is unset.
func TestRedisLocker_Server(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	key := "cinema:test:lock:" + t.Name()
	t.Cleanup(func() { _ = rdb.Del(context.Background(), key).Err() })
	l := NewRedisLocker(rdb)

	release, err := l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	_, err = l.TryLock(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrMaintenanceLocked)

	require.NoError(t, rdb.Set(ctx, key, "someone-else", time.Minute).Err())
	require.NoError(t, release(ctx))
	v, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)

	require.NoError(t, rdb.Del(ctx, key).Err())
	release, err = l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	assert.Equal(t, int64(0), rdb.Exists(ctx, key).Val())
}
