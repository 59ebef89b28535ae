package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStore_WindowScenario(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.Check(ctx, "post:fp:ip", 3, time.Second)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i+1)
		assert.Equal(t, 3-(i+1), res.Remaining)
	}

	res, err := s.Check(ctx, "post:fp:ip", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	mr.FastForward(time.Second)

	res, err = s.Check(ctx, "post:fp:ip", 3, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining, "fresh window starts at count 1")
}

func TestRedisStore_DenialDoesNotIncrement(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	_, err = s.Check(ctx, "k", 2, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := s.Check(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	}

	got, err := mr.Get(redisKeyPrefix + "k")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestRedisStore_SetsExpiry(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	res, err := s.Check(ctx, "k", 10, time.Hour)
	require.NoError(t, err)

	ttl := mr.TTL(redisKeyPrefix + "k")
	assert.Equal(t, time.Hour, ttl)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ResetAt, 5*time.Second)
}

func TestRedisStore_Reset(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.Check(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx, "k"))
	assert.False(t, mr.Exists(redisKeyPrefix+"k"))

	res, err := s.Check(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	s, mr := setupRedisStore(t)
	mr.Close()

	_, err := s.Check(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}
