package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is the request timestamp history for one identity+action pair.
type entry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// MemoryCounter implements Counter with an in-process sliding window per
// identity+action key. Used by tests and storage-less embedded deployments;
// production uses the Postgres counter so limits hold across instances.
//
// A background goroutine evicts stale keys every minute to bound memory.
type MemoryCounter struct {
	now func() time.Time // injectable for tests

	mu      sync.Mutex
	entries map[string]*entry

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryCounter creates an in-memory counter.
// Call Close to stop the cleanup goroutine.
func NewMemoryCounter() *MemoryCounter {
	m := &MemoryCounter{
		now:     time.Now,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// CheckAndIncrement records one request and reports whether identity is
// within maxRequests over the trailing window. The recording happens even
// when the request is denied, matching the at-least-once contract.
func (m *MemoryCounter) CheckAndIncrement(_ context.Context, identity, action string, maxRequests int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := identity + ":" + action
	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.lastAccess = now

	// Drop timestamps that fell out of the window.
	cutoff := now.Add(-window)
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = append(kept, now)

	return len(e.timestamps) <= maxRequests, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (m *MemoryCounter) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

const staleThreshold = 48 * time.Hour

func (m *MemoryCounter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

func (m *MemoryCounter) evictStale() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-staleThreshold)
	for key, e := range m.entries {
		if e.lastAccess.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}

// NoopCounter allows every request. Used when rate limiting is disabled.
type NoopCounter struct{}

// CheckAndIncrement always allows.
func (NoopCounter) CheckAndIncrement(context.Context, string, string, int, time.Duration) (bool, error) {
	return true, nil
}
