// Package cache provides the result cache backends used by the generation service.
package cache

import (
	"context"
	"sync"
	"time"

	"seopro/app/internal/domain/content"
)

type memoryEntry struct {
	result    content.GenerationResult
	expiresAt time.Time
}

// MemoryOptions configures an in-process cache.
type MemoryOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Memory is a process-local cache. Expired entries are never returned and are
// removed by a background sweep until Close is called.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	stop      chan struct{}
	closeOnce sync.Once
}

var _ content.Cache = (*Memory)(nil)

// NewMemory constructs a Memory cache and starts its sweeper.
func NewMemory(opts MemoryOptions) *Memory {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = content.DefaultCacheTTL
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
		stop:    make(chan struct{}),
	}

	interval := opts.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.pruneExpired()
			case <-m.stop:
				return
			}
		}
	}()

	return m
}

func (m *Memory) Get(_ context.Context, key string) (*content.GenerationResult, bool, error) {
	now := m.now()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !now.Before(entry.expiresAt) {
		return nil, false, nil
	}

	result := entry.result.Clone()
	return &result, true, nil
}

func (m *Memory) Put(_ context.Context, key string, result content.GenerationResult) error {
	entry := memoryEntry{result: result.Clone(), expiresAt: m.now().Add(m.ttl)}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

// Close stops the background sweep. It is safe to call more than once.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
	return nil
}

func (m *Memory) pruneExpired() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}
