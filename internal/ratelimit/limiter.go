package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Action names a rate-limited write.
type Action string

const (
	ActionPost      Action = "post"
	ActionVote      Action = "vote"
	ActionReport    Action = "report"
	ActionAdminAuth Action = "admin_auth"
)

// Policy is the allowance for one action.
type Policy struct {
	Max    int
	Window time.Duration
}

// DefaultPolicies are the per-identity allowances.
var DefaultPolicies = map[Action]Policy{
	ActionPost:      {Max: 3, Window: time.Hour},
	ActionVote:      {Max: 100, Window: time.Hour},
	ActionReport:    {Max: 10, Window: time.Hour},
	ActionAdminAuth: {Max: 5, Window: 15 * time.Minute},
}

// Key composes the counter key for an identity pair.
func Key(action Action, fingerprint, ipHash string) string {
	return string(action) + ":" + fingerprint + ":" + ipHash
}

// Limiter applies per-action policies on top of a Store.
type Limiter struct {
	store    Store
	policies map[Action]Policy
	enabled  bool
	now      func() time.Time
}

// NewLimiter uses DefaultPolicies. When enabled is false every check is
// admitted without touching the store.
func NewLimiter(store Store, enabled bool) *Limiter {
	policies := make(map[Action]Policy, len(DefaultPolicies))
	for a, p := range DefaultPolicies {
		policies[a] = p
	}
	return &Limiter{store: store, policies: policies, enabled: enabled, now: time.Now}
}

// SetPolicy overrides the allowance for an action.
func (l *Limiter) SetPolicy(action Action, p Policy) {
	l.policies[action] = p
}

// Policy returns the allowance for an action.
func (l *Limiter) Policy(action Action) (Policy, bool) {
	p, ok := l.policies[action]
	return p, ok
}

// Enabled reports whether checks reach the store.
func (l *Limiter) Enabled() bool {
	return l.enabled
}

// Allow checks and counts one request by the (fingerprint, ipHash) pair.
func (l *Limiter) Allow(ctx context.Context, action Action, fingerprint, ipHash string) (Result, error) {
	p, ok := l.policies[action]
	if !ok {
		return Result{}, fmt.Errorf("ratelimit: no policy for action %q", action)
	}
	if !l.enabled {
		return Result{Allowed: true, Limit: p.Max, Remaining: p.Max, ResetAt: l.now().Add(p.Window)}, nil
	}
	return l.store.Check(ctx, Key(action, fingerprint, ipHash), p.Max, p.Window)
}

// Reset clears the counter for an identity pair.
func (l *Limiter) Reset(ctx context.Context, action Action, fingerprint, ipHash string) error {
	return l.store.Reset(ctx, Key(action, fingerprint, ipHash))
}
