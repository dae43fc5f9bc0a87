package infocache

import (
	"context"
	"sync"
	"time"

	"wavepipe/internal/config"
	"wavepipe/internal/metadata"
)

type entry struct {
	value   metadata.Result
	expires time.Time
}

// Memory is an in-process TTL cache bounded to maxEntries. When full, the
// entry closest to expiry is evicted.
type Memory struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	stats   Stats

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemory creates a memory cache. A positive cleanupInterval starts a
// janitor goroutine that Close stops.
func NewMemory(ttl time.Duration, maxEntries int, cleanupInterval time.Duration) *Memory {
	m := &Memory{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]entry),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.janitor(cleanupInterval)
	} else {
		close(m.done)
	}
	return m
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) (metadata.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		m.stats.Misses++
		return metadata.Result{}, false
	}
	m.stats.Hits++
	return e.value, true
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value metadata.Result) {
	if m.ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = entry{value: value, expires: m.now().Add(m.ttl)}
	m.stats.Sets++
}

func (m *Memory) evictLocked() {
	var victim string
	var soonest time.Time
	for key, e := range m.entries {
		if victim == "" || e.expires.Before(soonest) {
			victim, soonest = key, e.expires
		}
	}
	if victim != "" {
		delete(m.entries, victim)
		m.stats.Evictions++
	}
}

// DeleteExpired drops expired entries and returns how many were removed.
func (m *Memory) DeleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, key)
			removed++
		}
	}
	m.stats.Evictions += int64(removed)
	return removed
}

// Stats implements Cache.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := m.stats
	stats.Backend = config.CacheBackendMemory
	stats.Size = len(m.entries)
	return stats
}

// Close stops the janitor and waits for it to exit.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

func (m *Memory) janitor(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.DeleteExpired()
		case <-m.stop:
			return
		}
	}
}
