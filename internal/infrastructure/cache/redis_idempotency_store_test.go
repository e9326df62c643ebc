package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/infrastructure/config"
	"go.uber.org/zap"
)

// redisClient connects to REDIS_ADDR or skips the test
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := redisClient(t)
	prefix := "sis:test:" + uuid.NewString() + ":"
	s := NewRedisIdempotencyStore(client, prefix)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	ok, err := s.MarkProcessed(ctx, "pay:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkProcessed(ctx, "pay:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	held, err := s.IsProcessed(ctx, "pay:1")
	require.NoError(t, err)
	assert.True(t, held)

	ttl, err := client.TTL(ctx, prefix+"pay:1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Release(ctx, "pay:1"))
	held, err = s.IsProcessed(ctx, "pay:1")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestNewIdempotencyStore_InMemoryWithoutHost(t *testing.T) {
	store, err := NewIdempotencyStore(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestNewIdempotencyStore_UnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := NewIdempotencyStore(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1}, zap.NewNop())
	assert.Error(t, err)
}
