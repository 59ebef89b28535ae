package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	shardCount             = 256
	defaultCleanupInterval = 5 * time.Minute
)

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// MemoryStore is a process-local Store. Counters do not survive a restart and
// are not shared between instances.
type MemoryStore struct {
	shards [shardCount]*shard
	now    func() time.Time

	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithCleanupInterval sets how often expired entries are pruned. Zero disables
// the background goroutine.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupInterval = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
		stopCh:          make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	for _, o := range opts {
		o(s)
	}
	if s.cleanupInterval > 0 {
		go s.cleanup()
	}
	return s
}

func (s *MemoryStore) shard(key string) *shard {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return s.shards[h%shardCount]
}

func (s *MemoryStore) Check(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	if err := validate(limit, window); err != nil {
		return Result{}, err
	}

	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	e, ok := sh.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// expired windows are replaced, never carried forward
		e = &entry{resetAt: now.Add(window)}
		sh.entries[key] = e
	}

	allowed := e.count < limit
	if allowed {
		e.count++
	}

	return Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: limit - e.count,
		ResetAt:   e.resetAt,
	}, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	return nil
}

// Len returns the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Prune drops expired entries and returns how many were removed.
func (s *MemoryStore) Prune() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if !now.Before(e.resetAt) {
				delete(sh.entries, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Prune()
		case <-s.stopCh:
			return
		}
	}
}
