package fingerprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotCached is returned by a Cache that holds no fingerprint yet.
var ErrNotCached = errors.New("fingerprint: not cached")

// Cache persists a computed fingerprint between sessions.
type Cache interface {
	Load() (string, error)
	Save(fp string) error
}

// Provider returns the persisted fingerprint, computing and saving it on first
// use.
type Provider struct {
	cache   Cache
	collect func() Signals

	// OnSaveError is called when persisting fails. The fingerprint is still
	// returned for the current session.
	OnSaveError func(error)
}

func NewProvider(cache Cache, collect func() Signals) *Provider {
	return &Provider{cache: cache, collect: collect}
}

// Get returns the cached fingerprint or generates a new one.
func (p *Provider) Get() string {
	if fp, err := p.cache.Load(); err == nil && fp != "" {
		return fp
	}

	fp := Generate(p.collect())
	if err := p.cache.Save(fp); err != nil && p.OnSaveError != nil {
		p.OnSaveError(err)
	}
	return fp
}

// MemoryCache keeps the fingerprint for the lifetime of the process.
type MemoryCache struct {
	mu sync.Mutex
	fp string
}

func (m *MemoryCache) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fp == "" {
		return "", ErrNotCached
	}
	return m.fp, nil
}

func (m *MemoryCache) Save(fp string) error {
	m.mu.Lock()
	m.fp = fp
	m.mu.Unlock()
	return nil
}

// FileCache stores the fingerprint in Dir/StorageKey.
type FileCache struct {
	Dir string
}

func (f FileCache) path() string {
	return filepath.Join(f.Dir, StorageKey)
}

func (f FileCache) Load() (string, error) {
	b, err := os.ReadFile(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotCached
	}
	if err != nil {
		return "", fmt.Errorf("read fingerprint: %w", err)
	}
	fp := strings.TrimSpace(string(b))
	if fp == "" {
		return "", ErrNotCached
	}
	return fp, nil
}

func (f FileCache) Save(fp string) error {
	if err := os.MkdirAll(f.Dir, 0o700); err != nil {
		return fmt.Errorf("create fingerprint dir: %w", err)
	}
	if err := os.WriteFile(f.path(), []byte(fp+"\n"), 0o600); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	return nil
}
