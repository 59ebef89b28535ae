// Package ratelimit implements fixed-window admission counters behind an
// injectable Store, so a single instance can count in memory while a fleet
// shares counters in Redis.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrInvalidLimit is returned for non-positive limits or windows.
var ErrInvalidLimit = errors.New("ratelimit: max and window must be positive")

// Store counts requests per key in fixed windows.
//
// Check starts a fresh window when the key has none or its window has elapsed.
// While count < limit the request is admitted and counted; otherwise it is denied
// and the count is left untouched.
type Store interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the window resets, rounded up to whole seconds
// and never less than one second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	secs := math.Ceil(r.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

func validate(limit int, window time.Duration) error {
	if limit <= 0 || window <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
