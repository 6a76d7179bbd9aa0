package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *RedisCache {
	t.Helper()
	srv := miniredis.RunT(t)
	cache := NewRedisCache(srv.Addr())
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestBaselineRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetBaseline(ctx, "baseline:c1:168h0m0s", 1184.5, time.Minute))

	got, ok, err := cache.GetBaseline(ctx, "baseline:c1:168h0m0s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1184.5, got)
}

func TestBaselineMissingKey(t *testing.T) {
	cache := testCache(t)

	got, ok, err := cache.GetBaseline(context.Background(), "baseline:absent:1h")
	require.NoError(t, err, "a cache miss is not an error")
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestBaselineCorruptValue(t *testing.T) {
	srv := miniredis.RunT(t)
	require.NoError(t, srv.Set("baseline:c1:1h", "not-a-number"))

	cache := NewRedisCache(srv.Addr())
	defer cache.Close()

	_, ok, err := cache.GetBaseline(context.Background(), "baseline:c1:1h")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBaselineExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	cache := NewRedisCache(srv.Addr())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.SetBaseline(ctx, "baseline:c1:1h", 42, time.Minute))

	srv.FastForward(2 * time.Minute)

	_, ok, err := cache.GetBaseline(ctx, "baseline:c1:1h")
	require.NoError(t, err)
	assert.False(t, ok, "expired baseline must read as a miss")
}

func TestPing(t *testing.T) {
	cache := testCache(t)
	assert.NoError(t, cache.Ping(context.Background()))
}
