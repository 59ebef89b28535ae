package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(clock *fakeClock) *MemoryStore {
	return NewMemoryStore(WithClock(clock.Now), WithCleanupInterval(0))
}

func TestMemoryStore_AllowsUpToMax(t *testing.T) {
	s := newTestStore(newFakeClock())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := s.Check(ctx, "k", 5, time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if res.Remaining != 5-(i+1) {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, 5-(i+1))
		}
	}
}

func TestMemoryStore_WindowScenario(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, _ := s.Check(ctx, "k", 3, time.Second)
		if !res.Allowed {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}

	res, _ := s.Check(ctx, "k", 3, time.Second)
	if res.Allowed {
		t.Fatal("4th call should be denied")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining after denial = %d, want 0", res.Remaining)
	}

	clock.Advance(time.Second)

	res, _ = s.Check(ctx, "k", 3, time.Second)
	if !res.Allowed {
		t.Fatal("call after window should be allowed")
	}
	if res.Remaining != 2 {
		t.Errorf("fresh window remaining = %d, want 2 (count of 1)", res.Remaining)
	}
	if !res.ResetAt.Equal(clock.Now().Add(time.Second)) {
		t.Errorf("fresh window should start now, resetAt = %v", res.ResetAt)
	}
}

func TestMemoryStore_DenialDoesNotIncrement(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	ctx := context.Background()

	s.Check(ctx, "k", 1, time.Minute)
	first, _ := s.Check(ctx, "k", 1, time.Minute)
	for i := 0; i < 10; i++ {
		s.Check(ctx, "k", 1, time.Minute)
	}
	last, _ := s.Check(ctx, "k", 1, time.Minute)

	if first.Allowed || last.Allowed {
		t.Fatal("calls past the limit should be denied")
	}
	if !first.ResetAt.Equal(last.ResetAt) {
		t.Error("denied calls must not move the window")
	}
}

func TestMemoryStore_DifferentKeysIndependent(t *testing.T) {
	s := newTestStore(newFakeClock())
	ctx := context.Background()

	s.Check(ctx, "a", 2, time.Minute)
	s.Check(ctx, "a", 2, time.Minute)

	if res, _ := s.Check(ctx, "a", 2, time.Minute); res.Allowed {
		t.Fatal("key a should be blocked")
	}
	if res, _ := s.Check(ctx, "b", 2, time.Minute); !res.Allowed {
		t.Fatal("key b should be allowed (independent key)")
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	s := newTestStore(newFakeClock())
	ctx := context.Background()

	s.Check(ctx, "k", 1, time.Minute)
	if err := s.Reset(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if res, _ := s.Check(ctx, "k", 1, time.Minute); !res.Allowed {
		t.Fatal("reset key should be allowed again")
	}
}

func TestMemoryStore_Prune(t *testing.T) {
	clock := newFakeClock()
	s := newTestStore(clock)
	ctx := context.Background()

	s.Check(ctx, "short", 1, time.Second)
	s.Check(ctx, "long", 1, time.Hour)
	clock.Advance(2 * time.Second)

	if removed := s.Prune(); removed != 1 {
		t.Errorf("Prune removed %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestMemoryStore_InvalidLimit(t *testing.T) {
	s := newTestStore(newFakeClock())
	if _, err := s.Check(context.Background(), "k", 0, time.Minute); err != ErrInvalidLimit {
		t.Errorf("err = %v, want ErrInvalidLimit", err)
	}
	if _, err := s.Check(context.Background(), "k", 1, 0); err != ErrInvalidLimit {
		t.Errorf("err = %v, want ErrInvalidLimit", err)
	}
}

func TestMemoryStore_ConcurrentChecksNoLostUpdates(t *testing.T) {
	s := newTestStore(newFakeClock())
	ctx := context.Background()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, _ := s.Check(ctx, "hot", 50, time.Minute); res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if allowed.Load() != 50 {
		t.Errorf("allowed = %d, want exactly 50", allowed.Load())
	}
}

func TestMemoryStore_CloseStopsCleanup(t *testing.T) {
	s := NewMemoryStore(WithCleanupInterval(10 * time.Millisecond))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// second Close must not panic
	s.Close()
}

func TestResult_RetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		resetAt time.Time
		want    time.Duration
	}{
		{"rounds up", now.Add(1500 * time.Millisecond), 2 * time.Second},
		{"whole seconds", now.Add(time.Hour), time.Hour},
		{"already elapsed", now.Add(-time.Second), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{ResetAt: tt.resetAt}
			if got := r.RetryAfter(now); got != tt.want {
				t.Errorf("RetryAfter = %v, want %v", got, tt.want)
			}
		})
	}
}
