package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
)

// Admission applies the per-action rate limits shared by every write path.
type Admission struct {
	limiter *ratelimit.Limiter
	now     func() time.Time
}

func NewAdmission(limiter *ratelimit.Limiter) *Admission {
	return &Admission{limiter: limiter, now: time.Now}
}

// Check consumes one token for (action, fingerprint, ipHash). A store failure
// admits the request and is counted in hottakes_ratelimit_errors_total.
func (a *Admission) Check(ctx context.Context, action ratelimit.Action, fingerprint, ipHash string) error {
	res, err := a.limiter.Allow(ctx, action, fingerprint, ipHash)
	if err != nil {
		metrics.RateLimitErrors.Inc()
		log.Error().Err(err).Str("action", string(action)).Msg("rate limit check failed, admitting")
		return nil
	}
	if !res.Allowed {
		return rateLimitedError(string(action), res.RetryAfter(a.now()))
	}
	return nil
}

// rejected counts a failed write by action and code, then returns err unchanged.
func rejected(action ratelimit.Action, err error) error {
	code := CodeOf(err)
	if code == "" {
		code = CodeUnexpected
	}
	metrics.Rejections.WithLabelValues(string(action), string(code)).Inc()
	return err
}
