package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "rl:"

// checkScript admits and counts only while count < max, so denied requests do
// not extend or inflate the window. Returns {allowed, count, pttl}.
var checkScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local count = tonumber(redis.call("GET", KEYS[1]) or "0")
local allowed = 0
if count < max then
  count = redis.call("INCR", KEYS[1])
  allowed = 1
  if count == 1 then
    redis.call("PEXPIRE", KEYS[1], window)
  end
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window)
  ttl = window
end
return {allowed, count, ttl}
`)

// RedisStore shares counters across instances. The check and increment run in
// one script, so concurrent requests never lose an update.
type RedisStore struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if err := validate(limit, window); err != nil {
		return Result{}, err
	}

	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}

	res, err := checkScript.Run(ctx, s.rdb, []string{redisKeyPrefix + key}, limit, windowMs).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit redis check: %w", err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("ratelimit redis check: unexpected reply length %d", len(res))
	}

	count := int(res[1])
	return Result{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: max(0, limit-count),
		ResetAt:   s.now().Add(time.Duration(res[2]) * time.Millisecond),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ratelimit redis reset: %w", err)
	}
	return nil
}
