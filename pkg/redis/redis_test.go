package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-risk/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test", RateLimitConfig{Key: "api", Limit: 3, Window: time.Second})

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.AllowN(context.Background())
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 3, remaining)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, TTLShort))

	var out map[string]int
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

// Integration: REDIS_TEST_HOST=localhost go test ./pkg/redis
func integrationClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{
		Host: host, Port: "6379", Enabled: true, DB: 15,
	}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_Integration(t *testing.T) {
	client := integrationClient(t)
	cache := NewCache(client, "aegis-risk-test")
	ctx := context.Background()

	type payload struct {
		VaR float64 `json:"var"`
	}
	require.NoError(t, cache.Set(ctx, "report", payload{VaR: 12.5}, TTLShort))
	t.Cleanup(func() { _ = cache.Delete(ctx, "report") })

	var got payload
	found, err := cache.Get(ctx, "report", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 12.5, got.VaR)

	found, err = cache.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_Integration(t *testing.T) {
	client := integrationClient(t)
	key := "burst-" + time.Now().Format("150405.000000")
	limiter := NewRateLimiter(client, "aegis-risk-test", RateLimitConfig{Key: key, Limit: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx)
	require.NoError(t, err)
	assert.False(t, allowed)
}
