package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisBucketStore, *miniredis.Miniredis, *time.Time) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewRedisBucketStore(client)
	store.now = func() time.Time { return now }
	return store, mr, &now
}

func TestRedisBucketStore_AllowsUpToLimit(t *testing.T) {
	store, mr, now := newRedisStore(t)
	ctx := context.Background()

	for i := range 3 {
		result, err := store.Allow(ctx, "write:supervisor:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
		assert.Equal(t, now.Add(time.Minute).Unix(), result.ResetAt.Unix())
	}
	assert.True(t, mr.Exists("guardhouse:ratelimit:write:supervisor:1"))

	*now = now.Add(20 * time.Second)
	result, err := store.Allow(ctx, "write:supervisor:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, 40, result.RetryAfter)
}

func TestRedisBucketStore_WindowSlides(t *testing.T) {
	store, _, now := newRedisStore(t)
	ctx := context.Background()

	for range 2 {
		_, err := store.Allow(ctx, "read:admin", 2, time.Minute)
		require.NoError(t, err)
	}
	*now = now.Add(time.Minute + time.Second)

	result, err := store.Allow(ctx, "read:admin", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestRedisBucketStore_Reset(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Allow(ctx, "write:supervisor:2", 1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "write:supervisor:2"))
	assert.False(t, mr.Exists("guardhouse:ratelimit:write:supervisor:2"))

	result, err := store.Allow(ctx, "write:supervisor:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisBucketStore_ReportsConnectionErrors(t *testing.T) {
	store, mr, _ := newRedisStore(t)
	mr.Close()

	_, err := store.Allow(context.Background(), "write:supervisor:3", 1, time.Minute)
	require.Error(t, err)
}
