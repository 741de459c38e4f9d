package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardhouse/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("empty url disables redis", func(t *testing.T) {
		client, err := New(context.Background(), config.RedisConfig{})
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("rejects malformed url", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
		assert.Error(t, err)
	})
}

func TestOptionsKeepsDefaultsForZeroValues(t *testing.T) {
	opts, err := options(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, ReadTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Zero(t, opts.MinIdleConns)
	assert.Zero(t, opts.WriteTimeout, "left for go-redis to default")
}

func TestHealthReportsDownServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	assert.Error(t, client.Health(context.Background()))
}
