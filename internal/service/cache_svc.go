package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

const (
	TakeCacheTTL     = 5 * time.Minute
	CategoryCacheTTL = 15 * time.Minute
	StatsCacheTTL    = time.Minute

	categoriesKey = "categories:active"
	statsKey      = "stats:global"
)

// CacheService provides a Redis cache-aside layer for take lookups, the
// category list and global stats. A nil client turns every operation into a
// miss or no-op. Cache errors are logged and never fail a request.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService connects to Redis. If redisURL is empty or the connection
// fails, it returns a CacheService with a nil client.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{}
	}

	log.Info().Str("addr", opts.Addr).Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(rdb *redis.Client) *CacheService {
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks and the
// shared rate limit store). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

func (c *CacheService) getJSON(ctx context.Context, key string, dst any) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		metrics.CacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		metrics.CacheMisses.Inc()
		return false
	}
	metrics.CacheHits.Inc()
	return true
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

func (c *CacheService) del(ctx context.Context, keys ...string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: invalidate failed")
	}
}

// GetTake returns a cached take, if present.
func (c *CacheService) GetTake(ctx context.Context, id uuid.UUID) (*model.Take, bool) {
	var t model.Take
	if !c.getJSON(ctx, takeKey(id), &t) {
		return nil, false
	}
	return &t, true
}

func (c *CacheService) SetTake(ctx context.Context, t *model.Take) {
	c.setJSON(ctx, takeKey(t.ID), t, TakeCacheTTL)
}

// InvalidateTake drops a take (called after votes and visibility changes).
func (c *CacheService) InvalidateTake(ctx context.Context, id uuid.UUID) {
	c.del(ctx, takeKey(id))
}

func (c *CacheService) GetCategories(ctx context.Context) ([]model.Category, bool) {
	var cats []model.Category
	if !c.getJSON(ctx, categoriesKey, &cats) {
		return nil, false
	}
	return cats, true
}

func (c *CacheService) SetCategories(ctx context.Context, cats []model.Category) {
	c.setJSON(ctx, categoriesKey, cats, CategoryCacheTTL)
}

func (c *CacheService) GetStats(ctx context.Context) (*model.StatsResponse, bool) {
	var s model.StatsResponse
	if !c.getJSON(ctx, statsKey, &s) {
		return nil, false
	}
	return &s, true
}

func (c *CacheService) SetStats(ctx context.Context, s *model.StatsResponse) {
	c.setJSON(ctx, statsKey, s, StatsCacheTTL)
}

func (c *CacheService) InvalidateStats(ctx context.Context) {
	c.del(ctx, statsKey)
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func takeKey(id uuid.UUID) string {
	return fmt.Sprintf("take:%s", id)
}
