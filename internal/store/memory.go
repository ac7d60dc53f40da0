package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the in-memory store so a long-lived server
	// does not grow without limit.
	DefaultMaxEntries = 1024

	cleanupInterval = 5 * time.Minute
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a thread-safe in-process Store. Values are kept JSON-encoded so
// reads behave exactly like the Redis backend, returning a copy rather than
// a shared pointer.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemory creates an in-memory store holding at most maxEntries values.
// Non-positive maxEntries falls back to DefaultMaxEntries. A background
// sweep removes expired entries until Close is called.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	m := &Memory{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Set stores the JSON encoding of value under key.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	return nil
}

// Get unmarshals the stored value into dest.
func (m *Memory) Get(_ context.Context, key string, dest any) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return ErrNotFound
	}
	return json.Unmarshal(entry.data, dest)
}

// Delete removes key if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the background sweep.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, entry := range m.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

// evictLocked drops expired entries, then the entry closest to expiry if
// the store is still full. Callers must hold the write lock.
func (m *Memory) evictLocked() {
	now := time.Now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}

	var victim string
	var victimExpiry time.Time
	first := true
	for key, entry := range m.entries {
		// Entries without expiry count as latest possible.
		exp := entry.expiresAt
		if exp.IsZero() {
			exp = now.Add(365 * 24 * time.Hour)
		}
		if first || exp.Before(victimExpiry) {
			victim, victimExpiry, first = key, exp, false
		}
	}
	delete(m.entries, victim)
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if entry.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
