package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
	"github.com/akshadjaiswal/hot-takes-arena/pkg/hash"
)

// RateLimitConfig defines the limit for a specific route or group.
type RateLimitConfig struct {
	Max    int                      // Maximum requests allowed in the window
	Window time.Duration            // Time window for the limit
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on
}

// RateLimiter is a coarse per-client HTTP limiter in front of the per-action
// admission checks. It shares the ratelimit.Store used by those checks.
type RateLimiter struct {
	store  ratelimit.Store
	config RateLimitConfig
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(store ratelimit.Store, cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{store: store, config: cfg, now: time.Now}
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
// Store failures admit the request.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		res, err := rl.store.Check(c.Context(), rl.config.KeyFn(c), rl.config.Max, rl.config.Window)
		if err != nil {
			metrics.RateLimitErrors.Inc()
			log.Error().Err(err).Msg("http rate limit check failed, admitting")
			return c.Next()
		}

		setRateLimitHeaders(c, res.Limit, res.Remaining, res.ResetAt)

		if !res.Allowed {
			retryAfter := res.RetryAfter(rl.now())
			secs := int(retryAfter / time.Second)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       string(service.CodeRateLimited),
					"message":    "Too many requests. Try again in " + strconv.Itoa(secs) + " seconds.",
					"retryAfter": secs,
				},
			})
		}

		return c.Next()
	}
}

func setRateLimitHeaders(c fiber.Ctx, limit, remaining int, resetAt time.Time) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// KeyByIPHash keys on the hashed client address set by NewIdentity.
func KeyByIPHash(c fiber.Ctx) string {
	h := IPHash(c)
	if h == "" {
		h = hash.SHA256Hex(c.IP())
	}
	return "http:" + h
}

// NewAPIRateLimiter allows perMinute requests per client address.
func NewAPIRateLimiter(store ratelimit.Store, perMinute int) *RateLimiter {
	return NewRateLimiter(store, RateLimitConfig{
		Max:    perMinute,
		Window: time.Minute,
		KeyFn:  KeyByIPHash,
	})
}
